package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge is a static catalog entry. Users only store the slug.
type Badge struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

const (
	BadgeFirstCorrect = "first-correct"
	BadgeFiveCorrect  = "5-correct"
	BadgeTenCorrect   = "10-correct"
	BadgeStreak3      = "streak-3"
	BadgeStreak5      = "streak-5"
	Badge100Points    = "100-points"
)

// BadgeCatalog is the canonical display info served to clients.
var BadgeCatalog = []Badge{
	{Slug: BadgeFirstCorrect, Title: "First Correct", Description: "Correct on your very first challenge.", Icon: "🏅"},
	{Slug: BadgeFiveCorrect, Title: "5 Correct", Description: "Solved 5 challenges correctly.", Icon: "🎯"},
	{Slug: BadgeTenCorrect, Title: "10 Correct", Description: "Solved 10 challenges correctly.", Icon: "🔥"},
	{Slug: BadgeStreak3, Title: "3 Win Streak", Description: "3 correct answers in a row.", Icon: "⚡️"},
	{Slug: BadgeStreak5, Title: "5 Win Streak", Description: "5 correct answers in a row.", Icon: "🚀"},
	{Slug: Badge100Points, Title: "100 Points", Description: "Earned 100 total points.", Icon: "🏆"},
}

func BadgeBySlug(slug string) (Badge, bool) {
	for _, b := range BadgeCatalog {
		if b.Slug == slug {
			return b, true
		}
	}
	return Badge{}, false
}

// UserBadge: awarded instance, one row per (user, slug)
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex:idx_user_badges_user_slug,priority:1;not null" json:"user_id"`
	Slug      string    `gorm:"type:varchar(32);uniqueIndex:idx_user_badges_user_slug,priority:2;not null" json:"slug"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
