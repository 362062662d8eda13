package http

import (
	"context"
	"errors"

	"github.com/Apurer/admin-dashboard/internal/clients/http/api"
	"github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	"github.com/Apurer/admin-dashboard/internal/domains/auth/ports"
)

// Backend paths of the authentication endpoints.
const (
	PathSession  = "/auth/passport/is-logged-in"
	PathLogin    = "/auth/passport/login"
	PathLogout   = "/auth/logout"
	PathRegister = "/auth/register"

	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathVerifyEmail    = "/auth/verify-email"
)

var _ ports.API = (*Client)(nil)

// Client talks to the authentication endpoints through the shared API client.
type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) (*Client, error) {
	if apiClient == nil {
		return nil, errors.New("api client is required")
	}
	return &Client{api: apiClient}, nil
}

type sessionEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		User *domain.Identity `json:"user"`
	} `json:"data"`
}

type loginEnvelope struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// accountEnvelope answers the account maintenance endpoints. A 2xx answer
// without a success flag counts as success.
type accountEnvelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (e accountEnvelope) result() domain.AccountResult {
	return domain.AccountResult{Success: e.Success == nil || *e.Success, Message: e.Message}
}

func (c *Client) Session(ctx context.Context) (domain.SessionResult, error) {
	var env sessionEnvelope
	if err := c.api.Get(ctx, PathSession, nil, &env); err != nil {
		return domain.SessionResult{}, err
	}
	result := domain.SessionResult{Success: env.Success}
	if env.Data != nil && env.Data.User != nil {
		result.User = env.Data.User
	} else if env.Success {
		result.User = &domain.Identity{}
	}
	return result, nil
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	var env loginEnvelope
	if err := c.api.Post(ctx, PathLogin, creds, &env); err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult(env), nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.api.Post(ctx, PathLogout, nil, nil)
}

func (c *Client) Register(ctx context.Context, form domain.SignUpForm) (domain.LoginResult, error) {
	var env loginEnvelope
	if err := c.api.Post(ctx, PathRegister, form, &env); err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult(env), nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (domain.AccountResult, error) {
	var env accountEnvelope
	if err := c.api.Post(ctx, PathForgotPassword, domain.PasswordRecovery{Email: email}, &env); err != nil {
		return domain.AccountResult{}, err
	}
	return env.result(), nil
}

func (c *Client) ResetPassword(ctx context.Context, reset domain.PasswordReset) (domain.AccountResult, error) {
	var env accountEnvelope
	if err := c.api.Post(ctx, PathResetPassword, reset, &env); err != nil {
		return domain.AccountResult{}, err
	}
	return env.result(), nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (domain.AccountResult, error) {
	var env accountEnvelope
	if err := c.api.Post(ctx, PathVerifyEmail, domain.EmailVerification{Token: token}, &env); err != nil {
		return domain.AccountResult{}, err
	}
	return env.result(), nil
}
