package service

import (
	"context"
	"fmt"
	"time"

	"clinic-practice-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore tracks issued tokens so they can be revoked before expiry
type TokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) error
	Exists(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type redisTokenStore struct {
	redisClient *redis.Client
}

func NewRedisTokenStore(redisClient *redis.Client) TokenStore {
	return &redisTokenStore{redisClient: redisClient}
}

func tokenKey(userID uuid.UUID, tokenID string, tokenType jwt.TokenType) string {
	return fmt.Sprintf("%s_token:%s:%s", tokenType, userID.String(), tokenID)
}

func (s *redisTokenStore) Store(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) error {
	return s.redisClient.Set(ctx, tokenKey(userID, tokenID, tokenType), "valid", ttl).Err()
}

func (s *redisTokenStore) Exists(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error) {
	n, err := s.redisClient.Exists(ctx, tokenKey(userID, tokenID, tokenType)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error {
	return s.redisClient.Del(ctx, tokenKey(userID, tokenID, tokenType)).Err()
}

// RevokeAll drops every token of the user, e.g. after a password change
func (s *redisTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	var keys []string
	for _, tokenType := range []jwt.TokenType{jwt.AccessToken, jwt.RefreshToken} {
		iter := s.redisClient.Scan(ctx, 0, tokenKey(userID, "*", tokenType), 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s tokens: %w", tokenType, err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return s.redisClient.Del(ctx, keys...).Err()
}
