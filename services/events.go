package services

import (
	"context"
	"sort"
	"time"

	"phish-sim-backend/models"

	"gorm.io/gorm"
)

const (
	EventBadge       = "badge"
	EventCertificate = "certificate"
)

// ProgressEvent is one grant pushed to the user's event stream.
type ProgressEvent struct {
	Type        string              `json:"type"`
	At          time.Time           `json:"at"`
	Badge       *models.Badge       `json:"badge,omitempty"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

// EventService reads badge and certificate grants back out as a feed.
type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// Since returns grants strictly after cursor, oldest first, and the cursor
// to pass on the next call.
func (s *EventService) Since(ctx context.Context, userID string, cursor time.Time) ([]ProgressEvent, time.Time, error) {
	const op = "EventService.Since"

	var badges []models.UserBadge
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND awarded_at > ?", userID, cursor).
		Order("awarded_at ASC").
		Find(&badges).Error; err != nil {
		return nil, cursor, newError(KindInternal, op, err)
	}

	var certs []models.Certificate
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND issued_at > ?", userID, cursor).
		Order("issued_at ASC").
		Find(&certs).Error; err != nil {
		return nil, cursor, newError(KindInternal, op, err)
	}

	events := make([]ProgressEvent, 0, len(badges)+len(certs))
	for _, ub := range badges {
		b, ok := models.BadgeBySlug(ub.Slug)
		if !ok {
			b = models.Badge{Slug: ub.Slug, Title: ub.Slug}
		}
		events = append(events, ProgressEvent{Type: EventBadge, At: ub.AwardedAt, Badge: &b})
	}
	for i := range certs {
		events = append(events, ProgressEvent{Type: EventCertificate, At: certs[i].IssuedAt, Certificate: &certs[i]})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })

	next := cursor
	if len(events) > 0 {
		next = events[len(events)-1].At
	}
	return events, next, nil
}
