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

func TestEvaluateCertificates_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "liam", 55)

	cert, err := h.certificates.EvaluateCertificates(ctx, user.ID, 45, 55)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, models.LevelIntermediate, cert.Level)

	again, err := h.certificates.EvaluateCertificates(ctx, user.ID, 45, 55)
	require.NoError(t, err)
	assert.Nil(t, again)

	list, err := h.certificates.ListCertificates(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEvaluateCertificates_MultiLevelJumpIssuesReachedLevel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "maya", 160)

	cert, err := h.certificates.EvaluateCertificates(ctx, user.ID, 40, 160)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, models.LevelAdvanced, cert.Level)

	_, err = h.certificates.Get(ctx, user.ID, models.LevelIntermediate)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEvaluateCertificates_NeverIssuesBeginner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "noah", 10)
	ch := testutil.SeedChallenge(t, h.db, models.DifficultyBeginner, 10)
	testutil.SeedAttempt(t, h.db, user.ID, ch.ID, true, 10, at(1))

	cert, err := h.certificates.EvaluateCertificates(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Nil(t, cert)
}

func TestEvaluateCertificates_QuotaCountsOnlyMatchingDifficulty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "olga", 60)
	for i := 0; i < 5; i++ {
		ch := testutil.SeedChallenge(t, h.db, models.DifficultyBeginner, 10)
		testutil.SeedAttempt(t, h.db, user.ID, ch.ID, true, 10, at(10-i))
	}

	cert, err := h.certificates.EvaluateCertificates(ctx, user.ID, 55, 60)
	require.NoError(t, err)
	assert.Nil(t, cert)
}

func TestEvaluateCertificates_UnnamedHolder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, h.db, "", 300)

	cert, err := h.certificates.EvaluateCertificates(ctx, user.ID, 290, 300)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, "Unknown", cert.Name)
	assert.Equal(t, models.LevelExpert, cert.Level)
}

func TestCertificateGet_UnknownLevel(t *testing.T) {
	h := newHarness(t)
	_, err := h.certificates.Get(context.Background(), "u1", "grandmaster")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
