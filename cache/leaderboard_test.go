package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"phish-sim-backend/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return clock }

	m.Set(ctx, "limit:20", []byte("[]"))
	got, ok := m.Get(ctx, "limit:20")
	require.True(t, ok)
	assert.Equal(t, "[]", string(got))

	clock = clock.Add(2 * time.Minute)
	_, ok = m.Get(ctx, "limit:20")
	assert.False(t, ok)

	m.Set(ctx, "limit:3", []byte("[1]"))
	require.NoError(t, m.Invalidate(ctx))
	_, ok = m.Get(ctx, "limit:3")
	assert.False(t, ok)
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis cache tests")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, addr, "", 0, time.Minute, logger.Nop())
	require.NoError(t, err)
	defer r.Close()

	r.Set(ctx, "limit:5", []byte(`[{"rank":1}]`))
	got, ok := r.Get(ctx, "limit:5")
	require.True(t, ok)
	assert.JSONEq(t, `[{"rank":1}]`, string(got))

	require.NoError(t, r.Invalidate(ctx))
	_, ok = r.Get(ctx, "limit:5")
	assert.False(t, ok)
}
