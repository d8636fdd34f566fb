package services

import (
	"context"
	"errors"
	"strings"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"gorm.io/gorm"
)

// FeatureFailure reports a dependent step that failed after the attempt and
// its points were already committed.
type FeatureFailure struct {
	Feature string `json:"feature"`
	Message string `json:"message"`
}

type AttemptResult struct {
	AttemptID          string              `json:"attempt_id"`
	Correct            bool                `json:"correct"`
	PointsEarned       int64               `json:"points_earned"`
	AwardedBadges      []string            `json:"awarded_badges"`
	AwardedCertificate *models.Certificate `json:"awarded_certificate"`
	TotalPoints        int64               `json:"points"`
	Level              string              `json:"level"`
	CorrectOptionID    models.OptionID     `json:"correct_option_id"`
	Explanation        string              `json:"explanation"`
	Degraded           []FeatureFailure    `json:"degraded,omitempty"`
}

type ProgressionService struct {
	DB           *gorm.DB
	Challenges   *ChallengeService
	Attempts     *AttemptRecorder
	Badges       *BadgeService
	Certificates *CertificateService
	Leaderboard  LeaderboardCache

	// RepeatAttempts: when false, a correct answer to an already solved
	// challenge earns nothing.
	RepeatAttempts bool

	log *logger.Logger
}

type ProgressionDeps struct {
	Challenges   *ChallengeService
	Attempts     *AttemptRecorder
	Badges       *BadgeService
	Certificates *CertificateService
	Leaderboard  LeaderboardCache
}

func NewProgressionService(db *gorm.DB, deps ProgressionDeps, repeatAttempts bool, log *logger.Logger) *ProgressionService {
	return &ProgressionService{
		DB:             db,
		Challenges:     deps.Challenges,
		Attempts:       deps.Attempts,
		Badges:         deps.Badges,
		Certificates:   deps.Certificates,
		Leaderboard:    deps.Leaderboard,
		RepeatAttempts: repeatAttempts,
		log:            log.With("service", "ProgressionService"),
	}
}

// RecordAttempt scores one answer. The attempt row and the point increment
// commit together; badge and certificate evaluation run afterwards and their
// failures only degrade the result.
func (s *ProgressionService) RecordAttempt(ctx context.Context, userID, challengeID, chosenID string) (*AttemptResult, error) {
	const op = "ProgressionService.RecordAttempt"

	challengeID = strings.TrimSpace(challengeID)
	chosenID = strings.TrimSpace(chosenID)
	if userID == "" || challengeID == "" || chosenID == "" {
		return nil, newErrorf(KindInvalidInput, op, "challengeId and chosenId are required")
	}

	ch, err := s.Challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	correct := false
	optID, known := models.ParseOptionID(chosenID)
	if known {
		opt, ok := ch.Option(optID)
		correct = ok && opt.Correct
	} else {
		optID = models.OptionID(truncate(chosenID, 8))
	}

	var earned int64
	if correct {
		earned = ch.PointValue()
		if !s.RepeatAttempts {
			solved, err := s.Attempts.HasCorrect(ctx, userID, ch.ID)
			if err != nil {
				return nil, newError(KindInternal, op, err)
			}
			if solved {
				earned = 0
			}
		}
	}

	attempt := models.Attempt{
		UserID:       userID,
		ChallengeID:  ch.ID,
		ChosenID:     string(optID),
		Correct:      correct,
		PointsEarned: earned,
		CreatedAt:    nowFunc(),
	}

	var oldPoints, newPoints int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, points, err := s.Attempts.NextSeq(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newErrorf(KindNotFound, op, "user %s", userID)
			}
			return err
		}
		oldPoints = points
		attempt.Seq = seq

		if err := s.Attempts.Append(ctx, tx, &attempt); err != nil {
			return err
		}

		if earned > 0 {
			res := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("points", gorm.Expr("points + ?", earned))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return errors.New("point increment touched no rows")
			}
		}

		return tx.Model(&models.User{}).Select("points").Where("id = ?", userID).Scan(&newPoints).Error
	})
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, err
		}
		s.log.Error("attempt not applied", "user_id", userID, "challenge_id", ch.ID, "error", err)
		return nil, newError(KindInternal, op, err)
	}

	result := &AttemptResult{
		AttemptID:     attempt.ID,
		Correct:       correct,
		PointsEarned:  earned,
		AwardedBadges: []string{},
		TotalPoints:   newPoints,
		Level:         models.LevelForPoints(newPoints).Key,
		Explanation:   ch.Explanation,
	}
	if opt, ok := ch.CorrectOption(); ok {
		result.CorrectOptionID = opt.ID
	}

	if badges, err := s.Badges.EvaluateBadges(ctx, userID); err != nil {
		s.log.Error("badge evaluation failed", "user_id", userID, "error", err)
		result.Degraded = append(result.Degraded, FeatureFailure{Feature: "badges", Message: err.Error()})
	} else {
		result.AwardedBadges = badges
	}

	if cert, err := s.Certificates.EvaluateCertificates(ctx, userID, oldPoints, newPoints); err != nil {
		s.log.Error("certificate evaluation failed", "user_id", userID, "error", err)
		result.Degraded = append(result.Degraded, FeatureFailure{Feature: "certificates", Message: err.Error()})
	} else {
		result.AwardedCertificate = cert
	}

	// badges_count is part of the cached page too
	if (earned > 0 || len(result.AwardedBadges) > 0) && s.Leaderboard != nil {
		if err := s.Leaderboard.Invalidate(ctx); err != nil {
			s.log.Warn("leaderboard cache invalidation failed", "error", err)
		}
	}

	s.log.Debug("attempt recorded",
		"user_id", userID, "challenge_id", ch.ID, "correct", correct,
		"points_earned", earned, "points", newPoints)
	return result, nil
}

// LevelForPoints exposes the level rule to callers outside the engine.
func LevelForPoints(points int64) string {
	return models.LevelForPoints(points).Key
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
