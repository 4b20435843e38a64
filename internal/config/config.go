package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	// Lifecycle sweep: how often the expiry/divert pass runs, whether edible
	// food past expiry is diverted to the non-edible queue instead of expiring
	// outright, and how long a diverted row stays claimable before expiring.
	SweepInterval       time.Duration
	DivertExpiredEdible bool
	DivertGrace         time.Duration

	RateLimitDonation time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		DivertExpiredEdible: getEnv("DIVERT_EXPIRED_EDIBLE", "true") == "true",
	}

	var err error
	cfg.JWTTTL, err = parseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.SweepInterval, err = parseDuration(getEnv("SWEEP_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	cfg.DivertGrace, err = parseDuration(getEnv("DIVERT_GRACE", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIVERT_GRACE: %w", err)
	}
	cfg.RateLimitDonation, err = parseDuration(getEnv("RATE_LIMIT_DONATION", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_DONATION: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
