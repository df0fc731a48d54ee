package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
)

// ErrRefreshTokenNotFound is returned when a refresh token was never stored,
// has expired or was revoked.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID uint, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore handles storage and retrieval of tokens in Redis. Redis failures
// are returned to the caller.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshTokenRecord struct {
	UserID uint `json:"user_id"`
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenRecord{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	if err := s.cache.Put(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves the owner of a stored refresh token.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, error) {
	data, found, err := s.cache.Lookup(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil {
		return 0, fmt.Errorf("load refresh token: %w", err)
	}
	if !found {
		return 0, ErrRefreshTokenNotFound
	}

	var record refreshTokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return 0, fmt.Errorf("unmarshal token data: %w", err)
	}
	return record.UserID, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	if err := s.cache.Remove(ctx, refreshTokenKeyPrefix+tokenID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Put(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	return nil
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	_, found, err := s.cache.Lookup(ctx, accessTokenKeyPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("check access token blacklist: %w", err)
	}
	return found, nil
}
