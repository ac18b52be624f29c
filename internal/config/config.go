// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	OpenRouter OpenRouterConfig
	Stripe     StripeConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
}

// OpenRouterConfig configures the external AI service client.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// StripeConfig configures the payment collaborator and the fixed prices
// charged for each service, in grosze.
type StripeConfig struct {
	SecretKey           string
	PriceCVOptimization int64
	PriceCVBuilder      int64
	PricePremiumMonthly int64
}

// SessionConfig controls session budget enforcement. SoftLimitBytes triggers
// slot truncation, HardLimitBytes triggers eviction of content slots. Both
// must stay below whatever the session transport itself enforces.
type SessionConfig struct {
	SoftLimitBytes int
	HardLimitBytes int
	TTL            time.Duration
}

// RateLimitConfig controls the per-actor rate limiter on the CV endpoints.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/cvoptimizer.db"),
		OpenRouter: OpenRouterConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			Model:   getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Timeout: time.Duration(getEnvInt("OPENROUTER_TIMEOUT_SECONDS", 90)) * time.Second,
		},
		Stripe: StripeConfig{
			SecretKey:           getEnv("STRIPE_SECRET_KEY", ""),
			PriceCVOptimization: int64(getEnvInt("PRICE_CV_OPTIMIZATION", 999)),
			PriceCVBuilder:      int64(getEnvInt("PRICE_CV_BUILDER", 1499)),
			PricePremiumMonthly: int64(getEnvInt("PRICE_PREMIUM_MONTHLY", 2900)),
		},
		Session: SessionConfig{
			SoftLimitBytes: getEnvInt("SESSION_SOFT_LIMIT_BYTES", 9500),
			HardLimitBytes: getEnvInt("SESSION_HARD_LIMIT_BYTES", 10000),
			TTL:            time.Duration(getEnvInt("SESSION_TTL_HOURS", 720)) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvInt("RATE_LIMIT_RPS", 2),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Session.SoftLimitBytes <= 0 {
		return fmt.Errorf("SESSION_SOFT_LIMIT_BYTES must be > 0")
	}
	if c.Session.HardLimitBytes <= c.Session.SoftLimitBytes {
		return fmt.Errorf("SESSION_HARD_LIMIT_BYTES must be greater than SESSION_SOFT_LIMIT_BYTES")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be > 0")
	}
	if c.OpenRouter.BaseURL == "" {
		return fmt.Errorf("OPENROUTER_BASE_URL cannot be empty")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit settings must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
