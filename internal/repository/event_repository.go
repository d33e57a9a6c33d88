package repository

import (
	"context"
	"sort"

	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/store"
)

// EventRepository defines event persistence operations.
type EventRepository interface {
	List(ctx context.Context) ([]model.Event, error)
	Get(ctx context.Context, id string) (model.Event, error)
	Create(ctx context.Context, fields store.Value) (string, error)
	Update(ctx context.Context, id string, patch store.Value) error
	Delete(ctx context.Context, id string) error
	SetParticipants(ctx context.Context, id string, n int) error
}

type eventRepository struct {
	store store.Store
}

// NewEventRepository builds a store-backed repository.
func NewEventRepository(s store.Store) EventRepository {
	return &eventRepository{store: s}
}

// List fetches every event once, newest first.
func (r *eventRepository) List(ctx context.Context) ([]model.Event, error) {
	snap, err := r.store.Once(ctx, store.Events)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	events := make([]model.Event, 0, snap.Len())
	for _, ch := range snap.Children {
		events = append(events, model.EventFromValue(ch.Key, ch.Value))
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt > events[j].CreatedAt })
	return events, nil
}

func (r *eventRepository) Get(ctx context.Context, id string) (model.Event, error) {
	v, err := r.store.Get(ctx, store.Events, id)
	if err != nil {
		return model.Event{}, storeErr(err, apperrors.ErrEventNotFound)
	}
	return model.EventFromValue(id, v), nil
}

func (r *eventRepository) Create(ctx context.Context, fields store.Value) (string, error) {
	id, err := r.store.Push(ctx, store.Events, fields)
	return id, storeErr(err, nil)
}

// Update merges patch into an existing event; a missing one yields
// ErrEventNotFound.
func (r *eventRepository) Update(ctx context.Context, id string, patch store.Value) error {
	return storeErr(r.store.Update(ctx, store.Events, id, patch), apperrors.ErrEventNotFound)
}

// Delete is a no-op for a missing event.
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	return storeErr(r.store.Remove(ctx, store.Events, id), nil)
}

func (r *eventRepository) SetParticipants(ctx context.Context, id string, n int) error {
	return storeErr(r.store.Update(ctx, store.Events, id, store.Value{"participants": n}), apperrors.ErrEventNotFound)
}
