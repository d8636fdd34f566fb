package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultJWTSecret = "verysecret"

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Redis        RedisConfig
	R2           R2Config
	Certificates CertificateConfig
	Scoring      ScoringConfig
	Jobs         JobsConfig
	SeedDir      string
	LogMode      string
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// AdminToken guards the operator endpoints. Empty disables them.
	AdminToken string
}

// RedisConfig is optional. An empty Address disables the leaderboard cache.
type RedisConfig struct {
	Address        string
	Password       string
	DB             int
	LeaderboardTTL time.Duration
}

// R2Config is optional. Without it certificate artifacts go to local disk.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

type CertificateConfig struct {
	Dir        string
	AppBaseURL string
	IssuerName string
}

type ScoringConfig struct {
	// RepeatAttempts lets every correct answer earn points, including
	// answers to challenges the user already solved.
	RepeatAttempts bool
}

type JobsConfig struct {
	ReconcileInterval    time.Duration
	ArtifactPollInterval time.Duration
	EventPollInterval    time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	port := getEnvAsInt("PORT", 4000)
	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			AllowedOrigins: getEnvAsList("FRONTEND_URL", []string{"http://localhost:3000"}),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", DefaultJWTSecret),
			TokenTTL:   getEnvAsDuration("JWT_TTL", 7*24*time.Hour),
			AdminToken: getEnv("ADMIN_TOKEN", ""),
		},
		Redis: RedisConfig{
			Address:        getEnv("REDIS_ADDR", ""),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			LeaderboardTTL: getEnvAsDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
		},
		R2: R2Config{
			AccountID:       getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
			Bucket:          getEnv("R2_BUCKET_NAME", ""),
			CDNBaseURL:      getEnv("CDN_BASE_URL", ""),
		},
		Certificates: CertificateConfig{
			Dir:        getEnv("CERTS_DIR", "./public/certificates"),
			AppBaseURL: strings.TrimRight(getEnv("APP_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
			IssuerName: getEnv("CERT_ISSUER_NAME", "BreachBlockers"),
		},
		Scoring: ScoringConfig{
			RepeatAttempts: getEnvAsBool("SCORE_REPEAT_ATTEMPTS", true),
		},
		Jobs: JobsConfig{
			ReconcileInterval:    getEnvAsDuration("RECONCILE_INTERVAL", 5*time.Minute),
			ArtifactPollInterval: getEnvAsDuration("ARTIFACT_POLL_INTERVAL", 30*time.Second),
			EventPollInterval:    getEnvAsDuration("EVENT_POLL_INTERVAL", 2*time.Second),
		},
		SeedDir: getEnv("SEED_DIR", ""),
		LogMode: getEnv("LOG_MODE", "dev"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL: %s", c.Auth.TokenTTL)
	}
	if c.Jobs.ReconcileInterval <= 0 || c.Jobs.ArtifactPollInterval <= 0 || c.Jobs.EventPollInterval <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value and drops blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
