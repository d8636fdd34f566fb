// services/scheduler.go
package services

import (
	"context"
	"time"

	"phish-sim-backend/models"

	"github.com/go-co-op/gocron/v2"
)

// ReconcileReport summarises one sweep.
type ReconcileReport struct {
	Users        int
	Badges       int
	Certificates int
	Drifted      int
}

// Reconcile re-runs badge and certificate evaluation for users active since
// the given time. It repairs grants lost to degraded attempt results and
// reports users whose point total disagrees with their attempt log.
func (s *ProgressionService) Reconcile(ctx context.Context, since time.Time) (ReconcileReport, error) {
	var report ReconcileReport
	userIDs, err := s.Attempts.UsersActiveSince(ctx, since)
	if err != nil {
		return report, newError(KindInternal, "ProgressionService.Reconcile", err)
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Users++

		var user models.User
		if err := s.DB.WithContext(ctx).Select("id", "points").Where("id = ?", userID).First(&user).Error; err != nil {
			s.log.Warn("reconcile: user lookup failed", "user_id", userID, "error", err)
			continue
		}

		if sum, err := s.Attempts.SumPointsEarned(ctx, userID); err != nil {
			s.log.Warn("reconcile: sum failed", "user_id", userID, "error", err)
		} else if sum != user.Points {
			report.Drifted++
			s.log.Error("points drift detected", "user_id", userID, "points", user.Points, "attempt_sum", sum)
		}

		badges, err := s.Badges.EvaluateBadges(ctx, userID)
		if err != nil {
			s.log.Warn("reconcile: badge evaluation failed", "user_id", userID, "error", err)
		}
		report.Badges += len(badges)

		// from zero so a missed crossing into the current level is re-detected
		cert, err := s.Certificates.EvaluateCertificates(ctx, userID, 0, user.Points)
		if err != nil {
			s.log.Warn("reconcile: certificate evaluation failed", "user_id", userID, "error", err)
		}
		if cert != nil {
			report.Certificates++
		}
	}
	return report, nil
}

// StartReconcileScheduler runs Reconcile every interval over the attempts
// of the last two intervals.
func (s *ProgressionService) StartReconcileScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			report, err := s.Reconcile(ctx, nowFunc().Add(-2*interval))
			if err != nil {
				s.log.Error("reconcile sweep failed", "error", err)
				return
			}
			if report.Badges > 0 || report.Certificates > 0 || report.Drifted > 0 {
				s.log.Info("reconcile sweep repaired state",
					"users", report.Users, "badges", report.Badges,
					"certificates", report.Certificates, "drifted", report.Drifted)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
