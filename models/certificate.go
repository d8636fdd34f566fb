package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is issued at most once per (user, level). Name and Email are
// copied at issuance and never follow later profile edits.
type Certificate struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_certificates_user_level,priority:1" json:"-"`
	Level            string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_certificates_user_level,priority:2" json:"level"`
	IssuedAt         time.Time `gorm:"not null" json:"issued_at"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	ArtifactURL      string    `json:"url,omitempty"`
	ArtifactKey      string    `json:"-"`
	ArtifactFailures int       `gorm:"not null;default:0" json:"-"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
