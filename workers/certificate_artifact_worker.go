package workers

import (
	"context"
	"time"

	"phish-sim-backend/logger"
	"phish-sim-backend/services"
)

const artifactBatchSize = 20

// CertificateArtifactWorker renders certificates issued without an artifact.
type CertificateArtifactWorker struct {
	Artifacts *services.CertificateArtifactService
	log       *logger.Logger
}

func NewCertificateArtifactWorker(artifacts *services.CertificateArtifactService, log *logger.Logger) *CertificateArtifactWorker {
	return &CertificateArtifactWorker{Artifacts: artifacts, log: log.With("worker", "CertificateArtifactWorker")}
}

// RunOnce publishes one batch and returns how many succeeded.
func (w *CertificateArtifactWorker) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.Artifacts.Pending(ctx, artifactBatchSize)
	if err != nil {
		return 0, err
	}
	published := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		if err := w.Artifacts.Publish(ctx, &pending[i]); err != nil {
			w.log.Warn("certificate artifact failed", "certificate_id", pending[i].ID, "error", err)
			continue
		}
		published++
	}
	return published, nil
}

// Poll runs RunOnce every interval until ctx is done.
func (w *CertificateArtifactWorker) Poll(ctx context.Context, interval time.Duration) {
	w.log.Info("starting certificate artifact polling", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("certificate artifact polling stopped")
			return
		case <-ticker.C:
			n, err := w.RunOnce(ctx)
			if err != nil {
				w.log.Error("certificate artifact poll failed", "error", err)
				continue
			}
			if n > 0 {
				w.log.Info("certificate artifacts published", "count", n)
			}
		}
	}
}
