package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/admin-dashboard/internal/clients/http/api"
	"github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
)

func newTestClient(t *testing.T, handler nethttp.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	apiClient, err := api.NewClient(srv.URL)
	require.NoError(t, err)
	client, err := NewClient(apiClient)
	require.NoError(t, err)
	return client
}

func TestSession_DecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, PathSession, r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":{"user":{"id":"u1","email":"ada@example.com","role":"admin"}}}`)
	})

	result, err := client.Session(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "admin", result.User.Role)
}

func TestLogin_PostsCredentials(t *testing.T) {
	client := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodPost, r.Method)
		require.Equal(t, PathLogin, r.URL.Path)
		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret1" {
			_, _ = io.WriteString(w, `{"success":false,"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"token":"tok"}`)
	})

	ok, err := client.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, domain.LoginResult{Success: true, Token: "tok"}, ok)

	denied, err := client.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "nope"})
	require.NoError(t, err)
	require.False(t, denied.Success)
	require.Equal(t, "Invalid credentials", denied.Message)
}

func TestLogout_SurfacesHTTPErrors(t *testing.T) {
	client := newTestClient(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	})
	require.Error(t, client.Logout(context.Background()))
}

func TestAccountEndpoints_PostBodies(t *testing.T) {
	var bodies = map[string]map[string]string{}
	client := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.Equal(t, nethttp.MethodPost, r.Method)
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies[r.URL.Path] = body
		switch r.URL.Path {
		case PathForgotPassword:
			_, _ = io.WriteString(w, `{"success":true,"message":"Check your inbox"}`)
		case PathResetPassword:
			_, _ = io.WriteString(w, `{"success":false,"message":"Reset link expired"}`)
		default:
			w.WriteHeader(nethttp.StatusNoContent)
		}
	})
	ctx := context.Background()

	forgot, err := client.ForgotPassword(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.AccountResult{Success: true, Message: "Check your inbox"}, forgot)

	reset, err := client.ResetPassword(ctx, domain.PasswordReset{Token: "r1", Password: "newpass1"})
	require.NoError(t, err)
	require.False(t, reset.Success)
	require.Equal(t, "Reset link expired", reset.Message)

	verified, err := client.VerifyEmail(ctx, "v1")
	require.NoError(t, err)
	require.True(t, verified.Success)

	require.Equal(t, map[string]string{"email": "ada@example.com"}, bodies[PathForgotPassword])
	require.Equal(t, map[string]string{"token": "r1", "password": "newpass1"}, bodies[PathResetPassword])
	require.Equal(t, map[string]string{"token": "v1"}, bodies[PathVerifyEmail])
}
