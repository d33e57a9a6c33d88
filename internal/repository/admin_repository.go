package repository

import (
	"context"
	"errors"

	"technofest/internal/store"
)

// AdminRepository manages the admins/<uid> presence set.
type AdminRepository interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
	Grant(ctx context.Context, uid string) error
	Revoke(ctx context.Context, uid string) error
}

type adminRepository struct {
	store store.Store
}

// NewAdminRepository builds a store-backed repository.
func NewAdminRepository(s store.Store) AdminRepository {
	return &adminRepository{store: s}
}

func (r *adminRepository) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if uid == "" {
		return false, nil
	}
	_, err := r.store.Get(ctx, store.Admins, uid)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, nil)
	}
	return true, nil
}

func (r *adminRepository) Grant(ctx context.Context, uid string) error {
	return storeErr(r.store.Set(ctx, store.Admins, uid, store.Value{"grantedAt": store.ServerTimestamp}), nil)
}

func (r *adminRepository) Revoke(ctx context.Context, uid string) error {
	return storeErr(r.store.Remove(ctx, store.Admins, uid), nil)
}
