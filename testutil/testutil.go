package testutil

import (
	"fmt"
	"testing"
	"time"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a fresh, migrated in-memory database for one test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	// one connection keeps the shared in-memory database alive and
	// serialises writers the way sqlite expects
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

func SeedUser(tb testing.TB, db *gorm.DB, name string, points int64) *models.User {
	tb.Helper()
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Points:       points,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("failed to seed user: %v", err)
	}
	return u
}

// SeedChallenge stores a challenge whose correct answer is A.
func SeedChallenge(tb testing.TB, db *gorm.DB, d models.Difficulty, points int64) *models.Challenge {
	tb.Helper()
	ch := &models.Challenge{
		Title:       "Verify your account",
		Sender:      "Security <no-reply@secure-update.com>",
		Body:        "Click here to verify.",
		Explanation: "Urgency plus an unofficial domain.",
		Difficulty:  d,
		Points:      points,
		Options: datatypes.JSONSlice[models.Option]{
			{ID: models.OptionA, Text: "This is a phishing email", Correct: true},
			{ID: models.OptionB, Text: "This is a safe email"},
			{ID: models.OptionC, Text: "Looks suspicious but not harmful"},
		},
	}
	if err := db.Create(ch).Error; err != nil {
		tb.Fatalf("failed to seed challenge: %v", err)
	}
	return ch
}

// SeedAttempt writes an attempt row directly, bypassing scoring.
func SeedAttempt(tb testing.TB, db *gorm.DB, userID, challengeID string, correct bool, earned int64, at time.Time) *models.Attempt {
	tb.Helper()
	chosen := string(models.OptionB)
	if correct {
		chosen = string(models.OptionA)
	}
	if err := db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("attempt_seq", gorm.Expr("attempt_seq + 1")).Error; err != nil {
		tb.Fatalf("failed to bump attempt seq: %v", err)
	}
	var seq int64
	if err := db.Model(&models.User{}).Select("attempt_seq").Where("id = ?", userID).Scan(&seq).Error; err != nil {
		tb.Fatalf("failed to read attempt seq: %v", err)
	}
	a := &models.Attempt{
		UserID:       userID,
		ChallengeID:  challengeID,
		ChosenID:     chosen,
		Correct:      correct,
		PointsEarned: earned,
		Seq:          seq,
		CreatedAt:    at,
	}
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("failed to seed attempt: %v", err)
	}
	return a
}
