package services

import (
	"context"
	"errors"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateService struct {
	DB       *gorm.DB
	Attempts *AttemptRecorder
	log      *logger.Logger
}

func NewCertificateService(db *gorm.DB, attempts *AttemptRecorder, log *logger.Logger) *CertificateService {
	return &CertificateService{DB: db, Attempts: attempts, log: log.With("service", "CertificateService")}
}

// EvaluateCertificates issues at most one certificate for the transition
// oldPoints -> newPoints. A level crossing is checked first, then the
// distinct-correct quota of the level newPoints falls in.
func (s *CertificateService) EvaluateCertificates(ctx context.Context, userID string, oldPoints, newPoints int64) (*models.Certificate, error) {
	const op = "CertificateService.EvaluateCertificates"

	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErrorf(KindNotFound, op, "user %s", userID)
		}
		return nil, newError(KindInternal, op, err)
	}

	oldLevel := models.LevelForPoints(oldPoints)
	newLevel := models.LevelForPoints(newPoints)

	if newLevel.Rank > oldLevel.Rank {
		cert, err := s.issue(ctx, &user, newLevel)
		if err != nil {
			return nil, newError(KindInternal, op, err)
		}
		if cert != nil {
			return cert, nil
		}
	}

	if newLevel.RequiredCorrect == 0 {
		return nil, nil
	}
	solved, err := s.Attempts.CountDistinctCorrectByDifficulty(ctx, userID, newLevel.Difficulty())
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}
	if solved < newLevel.RequiredCorrect {
		return nil, nil
	}
	cert, err := s.issue(ctx, &user, newLevel)
	if err != nil {
		return nil, newError(KindInternal, op, err)
	}
	return cert, nil
}

// issue creates the certificate for level unless the user already holds it.
// It returns nil when nothing new was written.
func (s *CertificateService) issue(ctx context.Context, user *models.User, level models.Level) (*models.Certificate, error) {
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Certificate{}).
		Where("user_id = ? AND level = ?", user.ID, level.Key).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, nil
	}

	cert := models.Certificate{
		UserID:   user.ID,
		Level:    level.Key,
		IssuedAt: nowFunc(),
		Name:     user.DisplayName(),
		Email:    user.Email,
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&cert)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race with a concurrent issuance
		return nil, nil
	}

	s.log.Info("certificate issued", "user_id", user.ID, "level", level.Key, "certificate_id", cert.ID)
	return &cert, nil
}

func (s *CertificateService) ListCertificates(ctx context.Context, userID string) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at ASC").
		Find(&certs).Error; err != nil {
		return nil, newError(KindInternal, "CertificateService.ListCertificates", err)
	}
	return certs, nil
}

func (s *CertificateService) Get(ctx context.Context, userID, levelKey string) (*models.Certificate, error) {
	const op = "CertificateService.Get"
	level, ok := models.LevelByKey(levelKey)
	if !ok {
		return nil, newErrorf(KindInvalidInput, op, "unknown level %q", levelKey)
	}
	var cert models.Certificate
	if err := s.DB.WithContext(ctx).Where("user_id = ? AND level = ?", userID, level.Key).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErrorf(KindNotFound, op, "no %s certificate", level.Key)
		}
		return nil, newError(KindInternal, op, err)
	}
	return &cert, nil
}
