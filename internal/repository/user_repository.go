package repository

import (
	"context"
	"errors"

	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/store"
)

// UserRepository defines user profile persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user model.User) error
	Get(ctx context.Context, uid string) (model.User, error)
	Exists(ctx context.Context, uid string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	store store.Store
}

// NewUserRepository builds a store-backed repository.
func NewUserRepository(s store.Store) UserRepository {
	return &userRepository{store: s}
}

// Create writes users/<uid> with a server-side creation time.
func (r *userRepository) Create(ctx context.Context, user model.User) error {
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}
	v := store.Value{
		"name":      user.Name,
		"email":     user.Email,
		"role":      role,
		"createdAt": store.ServerTimestamp,
	}
	if user.PhotoURL != "" {
		v["photoURL"] = user.PhotoURL
	}
	return storeErr(r.store.Set(ctx, store.Users, user.ID, v), nil)
}

func (r *userRepository) Get(ctx context.Context, uid string) (model.User, error) {
	v, err := r.store.Get(ctx, store.Users, uid)
	if err != nil {
		return model.User{}, storeErr(err, apperrors.ErrUserNotFound)
	}
	return model.UserFromValue(uid, v), nil
}

func (r *userRepository) Exists(ctx context.Context, uid string) (bool, error) {
	_, err := r.Get(ctx, uid)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	snap, err := r.store.Once(ctx, store.Users)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	users := make([]model.User, 0, snap.Len())
	for _, ch := range snap.Children {
		users = append(users, model.UserFromValue(ch.Key, ch.Value))
	}
	return users, nil
}
