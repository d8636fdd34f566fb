package services

import (
	"context"
	"errors"
	"fmt"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"
	"phish-sim-backend/utils"

	"gorm.io/gorm"
)

// MaxArtifactFailures stops the background publisher from retrying a
// certificate forever.
const MaxArtifactFailures = 3

// CertificateArtifactService renders issued certificates and stores the
// result. It never creates certificate records.
type CertificateArtifactService struct {
	DB           *gorm.DB
	Certificates *CertificateService
	Store        utils.ArtifactStore
	Renderer     *utils.CertificateRenderer
	log          *logger.Logger
}

func NewCertificateArtifactService(db *gorm.DB, certs *CertificateService, store utils.ArtifactStore, renderer *utils.CertificateRenderer, log *logger.Logger) *CertificateArtifactService {
	return &CertificateArtifactService{
		DB:           db,
		Certificates: certs,
		Store:        store,
		Renderer:     renderer,
		log:          log.With("service", "CertificateArtifactService"),
	}
}

// Generate returns the rendered certificate for levelKey, rendering it first
// when needed. An empty levelKey means the user's current level. Only held
// certificates of Intermediate or above can be generated.
func (s *CertificateArtifactService) Generate(ctx context.Context, userID, levelKey string) (*models.Certificate, error) {
	const op = "CertificateArtifactService.Generate"

	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "points").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newErrorf(KindNotFound, op, "user not found")
		}
		return nil, newError(KindInternal, op, err)
	}

	level := models.LevelForPoints(user.Points)
	if levelKey != "" {
		l, ok := models.LevelByKey(levelKey)
		if !ok {
			return nil, newErrorf(KindInvalidInput, op, "unknown level %q", levelKey)
		}
		level = l
	}
	if level.Rank < 1 {
		return nil, newErrorf(KindForbidden, op, "not enough points to generate certificate")
	}

	cert, err := s.Certificates.Get(ctx, userID, level.Key)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, newErrorf(KindForbidden, op, "%s certificate not earned yet", level.Key)
		}
		return nil, err
	}
	if cert.ArtifactURL != "" {
		return cert, nil
	}
	if err := s.Publish(ctx, cert); err != nil {
		return nil, newError(KindInternal, op, err)
	}
	return cert, nil
}

// Publish renders cert, uploads it and records the URL on the row.
func (s *CertificateArtifactService) Publish(ctx context.Context, cert *models.Certificate) error {
	key := utils.CertificateKey(cert.Name, cert.Level, cert.ID)
	url := s.Store.URL(key)

	png, err := s.Renderer.Render(utils.CertificateArt{
		ID:        cert.ID,
		Holder:    cert.Name,
		Level:     cert.Level,
		IssuedAt:  cert.IssuedAt,
		VerifyURL: url,
	})
	if err == nil {
		err = s.Store.Put(ctx, key, png, "image/png")
	}
	if err != nil {
		s.DB.WithContext(ctx).Model(&models.Certificate{}).
			Where("id = ?", cert.ID).
			UpdateColumn("artifact_failures", gorm.Expr("artifact_failures + 1"))
		return fmt.Errorf("publish certificate %s: %w", cert.ID, err)
	}

	if err := s.DB.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", cert.ID).
		Updates(map[string]interface{}{"artifact_url": url, "artifact_key": key}).Error; err != nil {
		return fmt.Errorf("record artifact for %s: %w", cert.ID, err)
	}
	cert.ArtifactURL = url
	cert.ArtifactKey = key

	s.log.Info("certificate artifact published", "certificate_id", cert.ID, "level", cert.Level, "url", url)
	return nil
}

// Pending lists certificates still waiting for an artifact, oldest first.
func (s *CertificateArtifactService) Pending(ctx context.Context, limit int) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := s.DB.WithContext(ctx).
		Where("(artifact_url = '' OR artifact_url IS NULL) AND artifact_failures < ?", MaxArtifactFailures).
		Order("issued_at ASC").
		Limit(limit).
		Find(&certs).Error
	return certs, err
}
