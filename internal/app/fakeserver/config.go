package fakeserver

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Apurer/admin-dashboard/internal/platform/fakeapi"
)

// Config carries environment-driven settings for the demo backend process.
type Config struct {
	Port          string
	AdminEmail    string
	AdminPassword string
	TokenTTL      time.Duration
	SeedDemoUsers bool
	LogLevel      string
	Tracing       bool
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:          envDefault("PORT", "3000"),
		AdminEmail:    envDefault("FAKEAPI_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: envDefault("FAKEAPI_ADMIN_PASSWORD", "admin123"),
		TokenTTL:      fakeapi.DefaultTokenTTL,
		SeedDemoUsers: true,
		LogLevel:      envDefault("FAKEAPI_LOG_LEVEL", "info"),
		Tracing:       isTruthy(os.Getenv("FAKEAPI_TRACING")),
	}
	if raw := strings.TrimSpace(os.Getenv("FAKEAPI_TOKEN_TTL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("FAKEAPI_TOKEN_TTL_MINUTES must be a positive integer")
		}
		cfg.TokenTTL = time.Duration(minutes) * time.Minute
	}
	if raw, ok := os.LookupEnv("FAKEAPI_SEED"); ok {
		cfg.SeedDemoUsers = isTruthy(raw)
	}
	if len(cfg.AdminPassword) < 6 {
		return Config{}, fmt.Errorf("FAKEAPI_ADMIN_PASSWORD must be at least 6 characters")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
