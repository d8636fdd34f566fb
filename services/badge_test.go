package services

import (
	"context"
	"errors"
	"testing"

	"phish-sim-backend/models"
	"phish-sim-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedBadges(t *testing.T) {
	tests := []struct {
		name         string
		totalCorrect int64
		recent       []bool
		points       int64
		want         []string
	}{
		{name: "nothing yet", want: nil},
		{name: "single correct", totalCorrect: 1, recent: []bool{true}, want: []string{models.BadgeFirstCorrect}},
		{
			name:         "broken streak",
			totalCorrect: 4,
			// oldest to newest: T T T F T
			recent: []bool{true, false, true, true, true},
			want:   []string{models.BadgeFirstCorrect},
		},
		{
			name:         "three in a row",
			totalCorrect: 3,
			recent:       []bool{true, true, true, false},
			want:         []string{models.BadgeFirstCorrect, models.BadgeStreak3},
		},
		{
			name:         "streak five needs a full window",
			totalCorrect: 4,
			recent:       []bool{true, true, true, true},
			want:         []string{models.BadgeFirstCorrect, models.BadgeStreak3},
		},
		{
			name:         "everything",
			totalCorrect: 12,
			recent:       []bool{true, true, true, true, true},
			points:       120,
			want: []string{
				models.BadgeFirstCorrect, models.BadgeFiveCorrect, models.BadgeTenCorrect,
				models.BadgeStreak3, models.BadgeStreak5, models.Badge100Points,
			},
		},
		{name: "points only", points: 100, recent: []bool{false}, want: []string{models.Badge100Points}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualifiedBadges(tt.totalCorrect, tt.recent, tt.points))
		})
	}
}

func TestEvaluateBadges_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "jane", 0)
	ch := testutil.SeedChallenge(t, h.db, models.DifficultyBeginner, 10)
	for i := 0; i < 3; i++ {
		testutil.SeedAttempt(t, h.db, user.ID, ch.ID, true, 10, at(5-i))
	}

	first, err := h.badges.EvaluateBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.BadgeFirstCorrect, models.BadgeStreak3}, first)

	second, err := h.badges.EvaluateBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, second)

	held, err := h.badges.Slugs(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, held)
}

func TestEvaluateBadges_StreakUsesMostRecentAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "kim", 0)
	ch := testutil.SeedChallenge(t, h.db, models.DifficultyBeginner, 10)
	for i, correct := range []bool{true, true, true, false, true} {
		testutil.SeedAttempt(t, h.db, user.ID, ch.ID, correct, 0, at(10-i))
	}

	awarded, err := h.badges.EvaluateBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.BadgeFirstCorrect}, awarded)
}

func TestEvaluateBadges_TiedTimestampsUseInsertOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ch := testutil.SeedChallenge(t, h.db, models.DifficultyBeginner, 10)

	for run := 0; run < 10; run++ {
		user := testutil.SeedUser(t, h.db, "tied", 0)
		for _, correct := range []bool{true, true, true, false} {
			testutil.SeedAttempt(t, h.db, user.ID, ch.ID, correct, 0, testEpoch)
		}

		recent, err := h.attempts.Recent(ctx, user.ID, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, []int64{4, 3, 2}, []int64{recent[0].Seq, recent[1].Seq, recent[2].Seq})
		assert.False(t, recent[0].Correct)

		awarded, err := h.badges.EvaluateBadges(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{models.BadgeFirstCorrect}, awarded, "run %d", run)
	}
}

func TestEvaluateBadges_UnknownUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.badges.EvaluateBadges(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBadgeCatalog(t *testing.T) {
	h := newHarness(t)
	catalog := h.badges.Catalog()
	require.Len(t, catalog, 6)
	for _, b := range catalog {
		got, ok := models.BadgeBySlug(b.Slug)
		assert.True(t, ok)
		assert.Equal(t, b.Title, got.Title)
	}
}
