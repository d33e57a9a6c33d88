package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"technofest/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
	resetTokenKeyPrefix   = "reset_token:"
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID, userID, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (userID string, err error)
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type tokenData struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID, userID, email string, ttl time.Duration) error {
	payload, err := json.Marshal(tokenData{UserID: userID, Email: email})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID, email string, err error) {
	data, err := s.get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil {
		return "", "", err
	}
	return data.UserID, data.Email, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.cache.Set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, accessTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // Not blacklisted if error (fail safe)
	}
	return data != nil, nil
}

// StoreResetToken remembers a password reset token for ttl.
func (s *TokenStore) StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	payload, err := json.Marshal(tokenData{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, resetTokenKeyPrefix+token, payload, ttl)
}

// ConsumeResetToken returns the user a reset token was issued for and
// deletes it, so each token works once.
func (s *TokenStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := resetTokenKeyPrefix + token
	data, err := s.get(ctx, key)
	if err != nil {
		return "", err
	}
	_ = s.cache.Delete(ctx, key)
	return data.UserID, nil
}

func (s *TokenStore) get(ctx context.Context, key string) (tokenData, error) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == nil {
		return tokenData{}, fmt.Errorf("token not found")
	}
	var data tokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return tokenData{}, fmt.Errorf("unmarshal token data: %w", err)
	}
	if data.UserID == "" {
		return tokenData{}, fmt.Errorf("invalid uid in token data")
	}
	return data, nil
}
