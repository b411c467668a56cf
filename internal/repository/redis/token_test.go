package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/repository"
)

func setupTokenRepo(t *testing.T) (repository.TokenRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTokenRepository(client), mr
}

func TestTokenRepository_Revocation(t *testing.T) {
	repo, mr := setupTokenRepo(t)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.RevokeToken(ctx, "jti-1", time.Hour))

	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)

	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "revocation should expire with the token")
}

func TestTokenRepository_RevokeExpiredTokenIsNoop(t *testing.T) {
	repo, mr := setupTokenRepo(t)

	require.NoError(t, repo.RevokeToken(context.Background(), "jti-2", 0))
	assert.False(t, mr.Exists(revokedPrefix+"jti-2"))
}

func TestTokenRepository_ResetTokenIsSingleUse(t *testing.T) {
	repo, _ := setupTokenRepo(t)
	ctx := context.Background()
	token := uuid.New()

	require.NoError(t, repo.StoreResetToken(ctx, token, 42, time.Hour))

	userID, err := repo.ConsumeResetToken(ctx, token.String())
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = repo.ConsumeResetToken(ctx, token.String())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTokenRepository_ResetTokenExpires(t *testing.T) {
	repo, mr := setupTokenRepo(t)
	ctx := context.Background()
	token := uuid.New()

	require.NoError(t, repo.StoreResetToken(ctx, token, 7, time.Hour))
	mr.FastForward(61 * time.Minute)

	_, err := repo.ConsumeResetToken(ctx, token.String())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
