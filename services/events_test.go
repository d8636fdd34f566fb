package services

import (
	"context"
	"testing"

	"phish-sim-backend/models"
	"phish-sim-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsSince(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	events := NewEventService(h.db)
	user := testutil.SeedUser(t, h.db, "xena", 45)
	for i := 0; i < 4; i++ {
		prev := testutil.SeedChallenge(t, h.db, models.DifficultyIntermediate, 10)
		testutil.SeedAttempt(t, h.db, user.ID, prev.ID, true, 10, at(10-i))
	}

	got, cursor, err := events.Since(ctx, user.ID, testEpoch)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, testEpoch, cursor)

	ch := testutil.SeedChallenge(t, h.db, models.DifficultyIntermediate, 10)
	_, err = h.progression.RecordAttempt(ctx, user.ID, ch.ID, "A")
	require.NoError(t, err)

	got, cursor, err = events.Since(ctx, user.ID, testEpoch)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, e := range got[:4] {
		assert.Equal(t, EventBadge, e.Type)
		require.NotNil(t, e.Badge)
		assert.NotEmpty(t, e.Badge.Title)
	}
	last := got[4]
	assert.Equal(t, EventCertificate, last.Type)
	require.NotNil(t, last.Certificate)
	assert.Equal(t, models.LevelIntermediate, last.Certificate.Level)
	assert.True(t, cursor.Equal(last.At))

	got, _, err = events.Since(ctx, user.ID, cursor)
	require.NoError(t, err)
	assert.Empty(t, got)
}
