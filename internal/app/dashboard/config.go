package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/admin-dashboard/internal/clients/http/api"
	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
)

// DefaultAPIBaseURL is used when neither the file nor the environment names one.
const DefaultAPIBaseURL = "http://localhost:3000/api"

// Token store backends.
const (
	TokenStoreFile   = "file"
	TokenStoreMemory = "memory"
)

// Config carries file- and environment-driven settings for the dashboard.
type Config struct {
	APIBaseURL   string        `yaml:"apiBaseUrl"`
	Timeout      time.Duration `yaml:"timeout"`
	Credentials  bool          `yaml:"credentials"`
	TokenStore   string        `yaml:"tokenStore"`
	TokenDir     string        `yaml:"tokenDir"`
	DownloadDir  string        `yaml:"downloadDir"`
	DefaultRole  string        `yaml:"defaultRole"`
	DiscardStale bool          `yaml:"discardStale"`
	LogLevel     string        `yaml:"logLevel"`
	LogFormat    string        `yaml:"logFormat"`
	Tracing      bool          `yaml:"tracing"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:   DefaultAPIBaseURL,
		Timeout:      api.DefaultTimeout,
		Credentials:  true,
		TokenStore:   TokenStoreFile,
		TokenDir:     defaultTokenDir(),
		DownloadDir:  ".",
		DefaultRole:  authdomain.DefaultRole,
		DiscardStale: true,
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

func defaultTokenDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "admin-dashboard")
	}
	return ".admin-dashboard"
}

// LoadConfig applies, in order: defaults, a .env file in the working
// directory, the YAML file at path (or DASHBOARD_CONFIG), DASHBOARD_*
// environment variables, and overrides. The result is validated.
func LoadConfig(path string, overrides ...func(*Config)) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := DefaultConfig()
	if path == "" {
		path = strings.TrimSpace(os.Getenv("DASHBOARD_CONFIG"))
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	for _, override := range overrides {
		if override != nil {
			override(&cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.APIBaseURL = envDefault("DASHBOARD_API_URL", c.APIBaseURL)
	c.TokenStore = envDefault("DASHBOARD_TOKEN_STORE", c.TokenStore)
	c.TokenDir = envDefault("DASHBOARD_TOKEN_DIR", c.TokenDir)
	c.DownloadDir = envDefault("DASHBOARD_DOWNLOAD_DIR", c.DownloadDir)
	c.DefaultRole = envDefault("DASHBOARD_DEFAULT_ROLE", c.DefaultRole)
	c.LogLevel = envDefault("DASHBOARD_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envDefault("DASHBOARD_LOG_FORMAT", c.LogFormat)
	if raw := strings.TrimSpace(os.Getenv("DASHBOARD_TIMEOUT")); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return fmt.Errorf("DASHBOARD_TIMEOUT must be a duration or a number of milliseconds")
		}
		c.Timeout = timeout
	}
	if raw, ok := os.LookupEnv("DASHBOARD_CREDENTIALS"); ok {
		c.Credentials = isTruthy(raw)
	}
	if raw, ok := os.LookupEnv("DASHBOARD_DISCARD_STALE"); ok {
		c.DiscardStale = isTruthy(raw)
	}
	if raw, ok := os.LookupEnv("DASHBOARD_TRACING"); ok {
		c.Tracing = isTruthy(raw)
	}
	return nil
}

// parseTimeout accepts Go durations and bare milliseconds.
func parseTimeout(raw string) (time.Duration, error) {
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

// Validate checks basic constraints.
func (c Config) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.APIBaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api base URL %q must be an absolute URL", c.APIBaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if strings.TrimSpace(c.DefaultRole) == "" {
		return errors.New("default role must not be empty")
	}
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreMemory:
	default:
		return fmt.Errorf("token store %q must be %q or %q", c.TokenStore, TokenStoreFile, TokenStoreMemory)
	}
	return nil
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
