package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"phish-sim-backend/logger"
	"phish-sim-backend/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService issues tokens. Leaderboard may be nil.
type AuthService struct {
	DB          *gorm.DB
	jwtSecret   []byte
	tokenTTL    time.Duration
	Leaderboard LeaderboardCache
	log         *logger.Logger
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, leaderboard LeaderboardCache, log *logger.Logger) *AuthService {
	return &AuthService{
		DB:          db,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		Leaderboard: leaderboard,
		log:         log.With("service", "AuthService"),
	}
}

// Register creates a user with zero points and returns a signed token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	const op = "AuthService.Register"
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", newErrorf(KindInvalidInput, op, "email and password required")
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", newError(KindInternal, op, err)
	}
	if existing > 0 {
		return nil, "", newErrorf(KindConflict, op, "user exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", newError(KindInternal, op, err)
	}
	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", newErrorf(KindConflict, op, "user exists")
		}
		return nil, "", newError(KindInternal, op, err)
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, "", newError(KindInternal, op, err)
	}
	if s.Leaderboard != nil {
		// a new user appears on the cached page at zero points
		if err := s.Leaderboard.Invalidate(ctx); err != nil {
			s.log.Warn("leaderboard invalidation failed", "user_id", user.ID, "error", err)
		}
	}
	s.log.Info("user registered", "user_id", user.ID)
	return &user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	const op = "AuthService.Login"
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", newErrorf(KindInvalidInput, op, "email and password required")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", newErrorf(KindUnauthorized, op, "invalid credentials")
		}
		return nil, "", newError(KindInternal, op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", newErrorf(KindUnauthorized, op, "invalid credentials")
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, "", newError(KindInternal, op, err)
	}
	return &user, token, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseToken verifies a bearer token and returns the user id it was issued for.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	const op = "AuthService.ParseToken"
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", newError(KindUnauthorized, op, fmt.Errorf("invalid token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", newErrorf(KindUnauthorized, op, "invalid or expired token")
	}
	return claims.Subject, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
