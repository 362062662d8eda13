package dashboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DASHBOARD_CONFIG", "DASHBOARD_API_URL", "DASHBOARD_TOKEN_STORE", "DASHBOARD_TOKEN_DIR", "DASHBOARD_DOWNLOAD_DIR",
		"DASHBOARD_DEFAULT_ROLE", "DASHBOARD_LOG_LEVEL", "DASHBOARD_LOG_FORMAT", "DASHBOARD_TIMEOUT",
		"DASHBOARD_CREDENTIALS", "DASHBOARD_DISCARD_STALE", "DASHBOARD_TRACING",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, "guest", cfg.DefaultRole)
	assert.True(t, cfg.Credentials)
	assert.True(t, cfg.DiscardStale)
	assert.Equal(t, TokenStoreFile, cfg.TokenStore)
	assert.Positive(t, cfg.Timeout)
}

func TestLoadConfig_FileThenEnvThenOverride(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
apiBaseUrl: https://admin.example.com/api
timeout: 3s
defaultRole: viewer
discardStale: false
logLevel: debug
`)
	t.Setenv("DASHBOARD_LOG_LEVEL", "error")
	t.Setenv("DASHBOARD_CREDENTIALS", "no")

	cfg, err := LoadConfig(path, func(c *Config) { c.DefaultRole = "auditor" })
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.False(t, cfg.DiscardStale)
	assert.False(t, cfg.Credentials)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "auditor", cfg.DefaultRole)
}

func TestLoadConfig_PathFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DASHBOARD_CONFIG", writeConfig(t, "apiBaseUrl: http://10.0.0.5:9000/api\n"))
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000/api", cfg.APIBaseURL)
}

func TestLoadConfig_TimeoutInMilliseconds(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DASHBOARD_TIMEOUT", "2500")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)

	t.Setenv("DASHBOARD_TIMEOUT", "soon")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "DASHBOARD_TIMEOUT")
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		override func(*Config)
		wantErr  string
	}{
		{name: "relative url", override: func(c *Config) { c.APIBaseURL = "/api" }, wantErr: "absolute URL"},
		{name: "zero timeout", override: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "blank role", override: func(c *Config) { c.DefaultRole = "  " }, wantErr: "default role"},
		{name: "bad yaml", body: "timeout: [", wantErr: "parse config"},
		{name: "unknown token store", body: "tokenStore: keychain\n", wantErr: `token store "keychain"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}
			_, err := LoadConfig(path, tt.override)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	clearConfigEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoadConfig_TokenStoreFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DASHBOARD_TOKEN_STORE", "memory")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, TokenStoreMemory, cfg.TokenStore)
}
