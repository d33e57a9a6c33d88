package repository

import (
	"context"

	"technofest/internal/model"
	"technofest/internal/store"
)

// RegistrationRepository appends and lists event registrations.
type RegistrationRepository interface {
	Append(ctx context.Context, eventID, userID string) (string, error)
	List(ctx context.Context) ([]model.Registration, error)
}

type registrationRepository struct {
	store store.Store
}

// NewRegistrationRepository builds a store-backed repository.
func NewRegistrationRepository(s store.Store) RegistrationRepository {
	return &registrationRepository{store: s}
}

func (r *registrationRepository) Append(ctx context.Context, eventID, userID string) (string, error) {
	id, err := r.store.Push(ctx, store.Registrations, store.Value{
		"eventId":      eventID,
		"userId":       userID,
		"registeredAt": store.ServerTimestamp,
		"status":       model.StatusRegistered,
	})
	return id, storeErr(err, nil)
}

func (r *registrationRepository) List(ctx context.Context) ([]model.Registration, error) {
	snap, err := r.store.Once(ctx, store.Registrations)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	regs := make([]model.Registration, 0, snap.Len())
	for _, ch := range snap.Children {
		regs = append(regs, model.RegistrationFromValue(ch.Key, ch.Value))
	}
	return regs, nil
}
