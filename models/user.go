package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a trainee. Points only ever move through the progression engine.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"type:varchar(120);not null;default:''" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Points       int64     `gorm:"not null;default:0;index" json:"points"`
	AttemptSeq   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName falls back to "Unknown" when the user never set a name.
func (u *User) DisplayName() string {
	if u.Name == "" {
		return "Unknown"
	}
	return u.Name
}
