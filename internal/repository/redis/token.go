package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinicare-api/internal/repository"
)

const (
	revokedPrefix = "auth:revoked:"
	resetPrefix   = "auth:reset:"
)

type tokenRepository struct {
	client *redis.Client
}

// NewTokenRepository keeps revoked JWT ids and password reset tokens in redis,
// both expiring on their own.
func NewTokenRepository(client *redis.Client) repository.TokenRepository {
	return &tokenRepository{client: client}
}

func (r *tokenRepository) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *tokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

func (r *tokenRepository) StoreResetToken(ctx context.Context, token uuid.UUID, userID int64, ttl time.Duration) error {
	if err := r.client.Set(ctx, resetPrefix+token.String(), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	val, err := r.client.GetDel(ctx, resetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read reset token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed reset token payload: %w", err)
	}
	return userID, nil
}
