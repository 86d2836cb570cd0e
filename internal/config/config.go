package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	Environment       string
	LogLevel          string
	SendingDomain     string
	VerifyConcurrency int
	VerifyPacing      time.Duration
	ScrapeTimeout     time.Duration
	RateLimitVerify   RateLimitConfig
	TokenTTL          time.Duration
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SendingDomain: getEnv("SMTP_SENDING_DOMAIN", "example.com"),
		VerifyPacing:  parseDuration(getEnv("VERIFY_PACING", "100ms"), 100*time.Millisecond),
		ScrapeTimeout: parseDuration(getEnv("SCRAPE_TIMEOUT", "10s"), 10*time.Second),
		TokenTTL:      parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
	}

	concurrency, err := strconv.Atoi(getEnv("VERIFY_CONCURRENCY", "3"))
	if err != nil || concurrency <= 0 {
		return nil, fmt.Errorf("invalid VERIFY_CONCURRENCY value: %q", getEnv("VERIFY_CONCURRENCY", "3"))
	}
	cfg.VerifyConcurrency = concurrency

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_VERIFY", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_VERIFY value: %w", err)
	}
	cfg.RateLimitVerify = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}
