package model

import (
	"time"

	"technofest/internal/store"
)

// RoleUser is assigned to every new account.
const RoleUser = "user"

// Credential providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is the public profile stored under users/<uid>.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PhotoURL      string `json:"photoURL,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     int64  `json:"createdAt"`
	IsAdmin       bool   `json:"isAdmin,omitempty"`
}

// UserFromValue normalizes a stored user record.
func UserFromValue(key string, v store.Value) User {
	return User{
		ID:            key,
		Name:          v.String("name"),
		Email:         v.String("email"),
		PhotoURL:      v.String("photoURL"),
		Role:          orDefault(v.String("role"), RoleUser),
		EmailVerified: v.Bool("emailVerified"),
		CreatedAt:     Millis(v["createdAt"]),
	}
}

// Credential is the sign-in record for a user. It never leaves the server.
type Credential struct {
	UID           string    `json:"uid" gorm:"primaryKey;size:64"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string    `json:"-" gorm:"size:255"` // Never expose in JSON
	Provider      string    `json:"provider" gorm:"size:32;not null;default:'password'"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	Disabled      bool      `json:"disabled" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
