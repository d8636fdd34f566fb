package services

import (
	"context"
	"errors"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// streakWindow is how many recent attempts the streak rules look at.
const streakWindow = 5

type BadgeService struct {
	DB       *gorm.DB
	Attempts *AttemptRecorder
	log      *logger.Logger
}

func NewBadgeService(db *gorm.DB, attempts *AttemptRecorder, log *logger.Logger) *BadgeService {
	return &BadgeService{DB: db, Attempts: attempts, log: log.With("service", "BadgeService")}
}

func (s *BadgeService) Catalog() []models.Badge {
	return models.BadgeCatalog
}

// Slugs returns the user's badges in award order.
func (s *BadgeService) Slugs(ctx context.Context, userID string) ([]string, error) {
	var slugs []string
	err := s.DB.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Order("slug ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

// EvaluateBadges re-derives eligibility from the attempt history and stores
// any badge the user did not hold yet. It returns only the new slugs.
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID string) ([]string, error) {
	const op = "BadgeService.EvaluateBadges"

	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "points").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErrorf(KindNotFound, op, "user %s", userID)
		}
		return nil, newError(KindInternal, op, err)
	}

	totalCorrect, err := s.Attempts.CountCorrect(ctx, userID)
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}
	recent, err := s.Attempts.Recent(ctx, userID, streakWindow)
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}
	held, err := s.Slugs(ctx, userID)
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}

	window := make([]bool, len(recent))
	for i, a := range recent {
		window[i] = a.Correct
	}

	have := make(map[string]bool, len(held))
	for _, slug := range held {
		have[slug] = true
	}

	awarded := []string{}
	for _, slug := range qualifiedBadges(totalCorrect, window, user.Points) {
		if !have[slug] {
			awarded = append(awarded, slug)
		}
	}
	if len(awarded) == 0 {
		return awarded, nil
	}

	now := nowFunc()
	rows := make([]models.UserBadge, 0, len(awarded))
	for _, slug := range awarded {
		rows = append(rows, models.UserBadge{UserID: userID, Slug: slug, AwardedAt: now})
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return nil, newError(KindInternal, op, err)
	}

	s.log.Info("badges awarded", "user_id", userID, "slugs", awarded)
	return awarded, nil
}

// qualifiedBadges lists every badge the given state satisfies, in catalog
// order. recent is most recent first.
func qualifiedBadges(totalCorrect int64, recent []bool, points int64) []string {
	var out []string
	if totalCorrect >= 1 {
		out = append(out, models.BadgeFirstCorrect)
	}
	if totalCorrect >= 5 {
		out = append(out, models.BadgeFiveCorrect)
	}
	if totalCorrect >= 10 {
		out = append(out, models.BadgeTenCorrect)
	}
	if len(recent) >= 3 && allTrue(recent[:3]) {
		out = append(out, models.BadgeStreak3)
	}
	if len(recent) == streakWindow && allTrue(recent) {
		out = append(out, models.BadgeStreak5)
	}
	if points >= 100 {
		out = append(out, models.Badge100Points)
	}
	return out
}

func allTrue(xs []bool) bool {
	for _, x := range xs {
		if !x {
			return false
		}
	}
	return true
}
