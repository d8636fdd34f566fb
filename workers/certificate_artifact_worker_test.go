package workers

import (
	"context"
	"testing"
	"time"

	"phish-sim-backend/services"
	"phish-sim-backend/testutil"
	"phish-sim-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateArtifactWorker_RunOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	attempts := services.NewAttemptRecorder(db)
	certs := services.NewCertificateService(db, attempts, log)
	store, err := utils.NewLocalStore(t.TempDir(), "http://localhost:4000/certificates")
	require.NoError(t, err)
	renderer, err := utils.NewCertificateRenderer("BreachBlockers")
	require.NoError(t, err)
	artifacts := services.NewCertificateArtifactService(db, certs, store, renderer, log)

	for _, points := range []int64{60, 200} {
		user := testutil.SeedUser(t, db, "holder", points)
		cert, err := certs.EvaluateCertificates(ctx, user.ID, 0, points)
		require.NoError(t, err)
		require.NotNil(t, cert)
	}

	w := NewCertificateArtifactWorker(artifacts, log)
	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCertificateArtifactWorker_PollStopsWithContext(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	attempts := services.NewAttemptRecorder(db)
	certs := services.NewCertificateService(db, attempts, log)
	artifacts := services.NewCertificateArtifactService(db, certs, nil, nil, log)
	w := NewCertificateArtifactWorker(artifacts, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Poll(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poll did not stop after cancel")
	}
}
