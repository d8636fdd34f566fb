package services

import (
	"context"
	"strings"
	"time"

	"phish-sim-backend/models"

	"gorm.io/gorm"
)

// nowFunc is swapped in tests for a deterministic clock.
var nowFunc = func() time.Time { return time.Now().UTC() }

// AttemptRecorder owns the append-only attempts log.
type AttemptRecorder struct {
	DB *gorm.DB
}

func NewAttemptRecorder(db *gorm.DB) *AttemptRecorder {
	return &AttemptRecorder{DB: db}
}

func (r *AttemptRecorder) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.DB.WithContext(ctx)
}

// Append writes an attempt, inside tx when one is given.
func (r *AttemptRecorder) Append(ctx context.Context, tx *gorm.DB, a *models.Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowFunc()
	}
	return r.conn(ctx, tx).Create(a).Error
}

func (r *AttemptRecorder) CountCorrect(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Attempt{}).
		Where("user_id = ? AND correct = ?", userID, true).
		Count(&n).Error
	return n, err
}

// NextSeq bumps the user's attempt counter inside tx and returns the new
// value with the user's points before this attempt. The update locks the
// user row until tx ends, so same-user attempts are serialised.
func (r *AttemptRecorder) NextSeq(ctx context.Context, tx *gorm.DB, userID string) (seq, points int64, err error) {
	res := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("attempt_seq", gorm.Expr("attempt_seq + 1"))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := tx.WithContext(ctx).Select("id", "points", "attempt_seq").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, 0, err
	}
	return user.AttemptSeq, user.Points, nil
}

// Recent returns the user's latest attempts, most recent first.
func (r *AttemptRecorder) Recent(ctx context.Context, userID string, n int) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(n).
		Find(&attempts).Error
	return attempts, err
}

// CountDistinctCorrectByDifficulty counts distinct challenges of the given
// difficulty the user has answered correctly at least once.
func (r *AttemptRecorder) CountDistinctCorrectByDifficulty(ctx context.Context, userID string, d models.Difficulty) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Attempt{}).
		Select("COUNT(DISTINCT attempts.challenge_id)").
		Joins("JOIN challenges ON challenges.id = attempts.challenge_id").
		Where("attempts.user_id = ? AND attempts.correct = ? AND LOWER(challenges.difficulty) = ?",
			userID, true, strings.ToLower(string(d))).
		Scan(&n).Error
	return n, err
}

func (r *AttemptRecorder) HasCorrect(ctx context.Context, userID, challengeID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Attempt{}).
		Where("user_id = ? AND challenge_id = ? AND correct = ?", userID, challengeID, true).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r *AttemptRecorder) SumPointsEarned(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.DB.WithContext(ctx).Model(&models.Attempt{}).
		Select("COALESCE(SUM(points_earned), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

// UsersActiveSince lists users with at least one attempt after since.
func (r *AttemptRecorder) UsersActiveSince(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&models.Attempt{}).
		Distinct("user_id").
		Where("created_at >= ?", since).
		Pluck("user_id", &ids).Error
	return ids, err
}
