package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"phish-sim-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T, ttl time.Duration) *AuthService {
	t.Helper()
	return NewAuthService(testutil.DB(t), "test-secret", ttl, nil, testutil.Logger(t))
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, " Ana ", "  Ana@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Zero(t, user.Points)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	subject, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	logged, token, err := auth.Login(ctx, "ANA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	subject, err = auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	ctx := context.Background()

	_, _, err := auth.Register(ctx, "a", "dup@example.com", "secret1")
	require.NoError(t, err)
	_, _, err = auth.Register(ctx, "b", "DUP@example.com", "secret2")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestAuth_RegisterInvalidatesLeaderboard(t *testing.T) {
	lb := newFakeCache()
	auth := NewAuthService(testutil.DB(t), "test-secret", time.Hour, lb, testutil.Logger(t))
	ctx := context.Background()

	_, _, err := auth.Register(ctx, "a", "fresh@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, lb.invalidations())

	_, _, err = auth.Register(ctx, "b", "fresh@example.com", "secret2")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, 1, lb.invalidations())
}

func TestAuth_RegisterMissingFields(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	_, _, err := auth.Register(context.Background(), "a", " ", "secret1")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	ctx := context.Background()
	_, _, err := auth.Register(ctx, "a", "who@example.com", "right-pass")
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "who@example.com", "wrong-pass")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, _, err = auth.Login(ctx, "nobody@example.com", "right-pass")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestAuth_ParseTokenRejects(t *testing.T) {
	ctx := context.Background()
	expired := newTestAuth(t, -time.Minute)
	_, token, err := expired.Register(ctx, "a", "old@example.com", "secret1")
	require.NoError(t, err)

	_, err = expired.ParseToken(token)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = expired.ParseToken("not-a-jwt")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	other := NewAuthService(expired.DB, "another-secret", time.Hour, nil, testutil.Logger(t))
	_, token, err = other.Login(ctx, "old@example.com", "secret1")
	require.NoError(t, err)
	_, err = expired.ParseToken(token)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}
