package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"technofest/internal/model"
	"technofest/internal/store"
)

// CredentialRepository defines sign-in account persistence.
type CredentialRepository interface {
	Create(ctx context.Context, cred *model.Credential) error
	FindByUID(ctx context.Context, uid string) (*model.Credential, error)
	FindByEmail(ctx context.Context, email string) (*model.Credential, error)
	UpdatePassword(ctx context.Context, uid, hash string) error
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository builds a GORM-backed repository.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	return r.db.WithContext(ctx).Create(cred).Error
}

func (r *credentialRepository) FindByUID(ctx context.Context, uid string) (*model.Credential, error) {
	var cred model.Credential
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&cred).Error; err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var cred model.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		return nil, err
	}
	return &cred, nil
}

// UpdatePassword replaces the hash; a missing uid yields gorm.ErrRecordNotFound.
func (r *credentialRepository) UpdatePassword(ctx context.Context, uid, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.Credential{}).
		Where("uid = ?", uid).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const credentialsCollection = "credentials"

type storeCredentialRepository struct {
	store store.Store
}

// NewStoreCredentialRepository keeps credentials in the document store for
// drivers without a SQL database. Missing records yield gorm.ErrRecordNotFound
// like the GORM implementation.
func NewStoreCredentialRepository(s store.Store) CredentialRepository {
	return &storeCredentialRepository{store: s}
}

func (r *storeCredentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	return storeErr(r.store.Set(ctx, credentialsCollection, cred.UID, credentialValue(cred)), nil)
}

func (r *storeCredentialRepository) FindByUID(ctx context.Context, uid string) (*model.Credential, error) {
	v, err := r.store.Get(ctx, credentialsCollection, uid)
	if err != nil {
		return nil, storeErr(err, gorm.ErrRecordNotFound)
	}
	return credentialFromValue(uid, v), nil
}

func (r *storeCredentialRepository) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	snap, err := r.store.Once(ctx, credentialsCollection)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	for _, ch := range snap.Children {
		if strings.EqualFold(ch.Value.String("email"), email) {
			return credentialFromValue(ch.Key, ch.Value), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *storeCredentialRepository) UpdatePassword(ctx context.Context, uid, hash string) error {
	err := r.store.Update(ctx, credentialsCollection, uid, store.Value{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	return storeErr(err, gorm.ErrRecordNotFound)
}

func credentialValue(c *model.Credential) store.Value {
	return store.Value{
		"email":         c.Email,
		"passwordHash":  c.PasswordHash,
		"provider":      c.Provider,
		"emailVerified": c.EmailVerified,
		"disabled":      c.Disabled,
		"createdAt":     c.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":     c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func credentialFromValue(uid string, v store.Value) *model.Credential {
	c := &model.Credential{
		UID:           uid,
		Email:         v.String("email"),
		PasswordHash:  v.String("passwordHash"),
		Provider:      v.String("provider"),
		EmailVerified: v.Bool("emailVerified"),
		Disabled:      v.Bool("disabled"),
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, v.String("createdAt"))
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v.String("updatedAt"))
	return c
}
