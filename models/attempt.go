package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attempt is an immutable record of one answer. PointsEarned is frozen at
// write time and never recomputed from the challenge. Seq is the user's
// attempt counter at write time and breaks created_at ties.
type Attempt struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;index:idx_attempts_user_created,priority:1" json:"user_id"`
	ChallengeID  string    `gorm:"type:varchar(36);not null;index" json:"challenge_id"`
	ChosenID     string    `gorm:"type:varchar(8);not null" json:"chosen_id"`
	Correct      bool      `gorm:"not null" json:"correct"`
	PointsEarned int64     `gorm:"not null" json:"points_earned"`
	Seq          int64     `gorm:"not null;default:0;index:idx_attempts_user_created,priority:3" json:"seq"`
	CreatedAt    time.Time `gorm:"not null;index:idx_attempts_user_created,priority:2" json:"created_at"`
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
