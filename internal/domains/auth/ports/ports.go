package ports

import (
	"context"

	"github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
)

// TokenKey is the storage slot holding the bearer token.
const TokenKey = "visio_auth_token"

// TokenStore owns the single bearer token slot. It is never part of the state
// tree.
type TokenStore interface {
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// API is the backend's authentication surface.
type API interface {
	Session(ctx context.Context) (domain.SessionResult, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, form domain.SignUpForm) (domain.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (domain.AccountResult, error)
	ResetPassword(ctx context.Context, reset domain.PasswordReset) (domain.AccountResult, error)
	VerifyEmail(ctx context.Context, token string) (domain.AccountResult, error)
}
