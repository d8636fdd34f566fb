package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/phish")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "BreachBlockers", cfg.Certificates.IssuerName)
	assert.Equal(t, "http://localhost:4000", cfg.Certificates.AppBaseURL)
	assert.True(t, cfg.Scoring.RepeatAttempts)
	assert.False(t, cfg.R2.Enabled())
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/phish")
	t.Setenv("PORT", "5200")
	t.Setenv("FRONTEND_URL", " https://a.example , ,https://b.example")
	t.Setenv("SCORE_REPEAT_ATTEMPTS", "false")
	t.Setenv("APP_BASE_URL", "https://phish.example/")
	t.Setenv("RECONCILE_INTERVAL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5200, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Scoring.RepeatAttempts)
	assert.Equal(t, "https://phish.example", cfg.Certificates.AppBaseURL)
	assert.Equal(t, 90*time.Second, cfg.Jobs.ReconcileInterval)
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestR2Enabled(t *testing.T) {
	r2 := R2Config{AccountID: "acc", AccessKeyID: "id", AccessKeySecret: "secret", Bucket: "certs"}
	assert.True(t, r2.Enabled())
	r2.Bucket = ""
	assert.False(t, r2.Enabled())
}
