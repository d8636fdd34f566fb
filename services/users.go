package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"gorm.io/gorm"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
	recentAttemptsOnProfile = 20
)

// LeaderboardCache stores rendered leaderboard pages. Implementations must
// tolerate being unavailable.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context) error
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Points      int64  `json:"points"`
	BadgesCount int64  `json:"badges_count"`
}

type Profile struct {
	ID                string               `json:"id"`
	Name              string               `json:"name"`
	Email             string               `json:"email"`
	Points            int64                `json:"points"`
	Level             string               `json:"level"`
	NextLevel         string               `json:"next_level,omitempty"`
	PointsToNextLevel int64                `json:"points_to_next_level"`
	Badges            []string             `json:"badges"`
	Certificates      []models.Certificate `json:"certificates"`
	RecentAttempts    []models.Attempt     `json:"recent_attempts"`
	CreatedAt         time.Time            `json:"created_at"`
}

type UserService struct {
	DB           *gorm.DB
	Attempts     *AttemptRecorder
	Badges       *BadgeService
	Certificates *CertificateService
	Cache        LeaderboardCache
	log          *logger.Logger
}

func NewUserService(db *gorm.DB, attempts *AttemptRecorder, badges *BadgeService, certs *CertificateService, cache LeaderboardCache, log *logger.Logger) *UserService {
	return &UserService{
		DB:           db,
		Attempts:     attempts,
		Badges:       badges,
		Certificates: certs,
		Cache:        cache,
		log:          log.With("service", "UserService"),
	}
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	const op = "UserService.Get"
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErrorf(KindNotFound, op, "user %s", userID)
		}
		return nil, newError(KindInternal, op, err)
	}
	return &user, nil
}

// Profile is the signed-in user's own view. It never carries the password hash.
func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	const op = "UserService.Profile"
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.Badges.Slugs(ctx, userID)
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}
	certs, err := s.Certificates.ListCertificates(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Attempts.Recent(ctx, userID, recentAttemptsOnProfile)
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}

	level := models.LevelForPoints(user.Points)
	p := &Profile{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Points:         user.Points,
		Level:          level.Key,
		Badges:         badges,
		Certificates:   certs,
		RecentAttempts: recent,
		CreatedAt:      user.CreatedAt,
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	if next, ok := models.NextLevel(level); ok {
		p.NextLevel = next.Key
		p.PointsToNextLevel = next.MinPoints - user.Points
	}
	return p, nil
}

// ClampLeaderboardLimit applies the default and the upper bound.
func ClampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// Leaderboard ranks users by points, ties broken by id, ranks 1..N.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = ClampLeaderboardLimit(limit)
	key := fmt.Sprintf("limit:%d", limit)

	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached []LeaderboardEntry
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	entries := []LeaderboardEntry{}
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Select("users.id, users.name, users.points, " +
			"(SELECT COUNT(*) FROM user_badges WHERE user_badges.user_id = users.id) AS badges_count").
		Order("users.points DESC").
		Order("users.id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, newError(KindInternal, "UserService.Leaderboard", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].Name == "" {
			entries[i].Name = "Unknown"
		}
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			s.Cache.Set(ctx, key, raw)
		}
	}
	return entries, nil
}
