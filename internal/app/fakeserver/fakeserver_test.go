package fakeserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/admin-dashboard/internal/clients/http/api"
	authhttp "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/http"
	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	userhttp "github.com/Apurer/admin-dashboard/internal/domains/users/adapters/http"
	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FAKEAPI_ADMIN_PASSWORD", "")
	t.Setenv("FAKEAPI_TOKEN_TTL_MINUTES", "15")
	t.Setenv("FAKEAPI_SEED", "no")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.SeedDemoUsers)

	t.Setenv("FAKEAPI_TOKEN_TTL_MINUTES", "-1")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "FAKEAPI_TOKEN_TTL_MINUTES")

	t.Setenv("FAKEAPI_TOKEN_TTL_MINUTES", "")
	t.Setenv("FAKEAPI_ADMIN_PASSWORD", "123")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "FAKEAPI_ADMIN_PASSWORD")
}

func TestHandler_ServesSeededBackend(t *testing.T) {
	cfg := Config{AdminEmail: "root@example.com", AdminPassword: "hunter22", TokenTTL: time.Minute, SeedDemoUsers: true}
	server := httptest.NewServer(NewHandler(NewBackend(cfg), nil))
	t.Cleanup(server.Close)
	ctx := context.Background()

	var token string
	apiClient, err := api.NewClient(server.URL, api.WithTokenProvider(api.TokenProviderFunc(
		func(context.Context) (string, bool) { return token, token != "" },
	)))
	require.NoError(t, err)
	auth, err := authhttp.NewClient(apiClient)
	require.NoError(t, err)
	users, err := userhttp.NewClient(apiClient)
	require.NoError(t, err)

	login, err := auth.Login(ctx, authdomain.Credentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword})
	require.NoError(t, err)
	require.True(t, login.Success)
	token = login.Token

	page, err := users.List(ctx, userdomain.DefaultFilters())
	require.NoError(t, err)
	assert.Equal(t, len(DemoUsers()), page.Total)
}
