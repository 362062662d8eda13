package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	"github.com/Apurer/admin-dashboard/internal/domains/auth/ports"
	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// ErrMissingToken is returned when a successful sign-in carries no token.
var ErrMissingToken = errors.New("sign-in response did not include a token")

// Service runs the session operations and reduces their outcome into the
// auth slice.
type Service struct {
	api         ports.API
	tokens      ports.TokenStore
	dispatcher  state.Dispatcher
	logger      *slog.Logger
	defaultRole string
	now         func() time.Time
	checks      singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDefaultRole sets the role given to identities the backend returns
// without one.
func WithDefaultRole(role string) Option {
	return func(s *Service) { s.defaultRole = strings.TrimSpace(role) }
}

// WithClock overrides the clock used to detect expired tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(api ports.API, tokens ports.TokenStore, dispatcher state.Dispatcher, opts ...Option) (*Service, error) {
	if api == nil {
		return nil, errors.New("auth api is required")
	}
	if tokens == nil {
		return nil, errors.New("token store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	s := &Service{
		api:         api,
		tokens:      tokens,
		dispatcher:  dispatcher,
		defaultRole: domain.DefaultRole,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.defaultRole == "" {
		s.defaultRole = domain.DefaultRole
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// CheckSession resolves the stored token into an identity. It never fails:
// every problem ends in Unauthenticated and a nil identity. Concurrent calls
// for the same token share one backend round trip; a call made after the
// token changed starts its own and settles the session.
func (s *Service) CheckSession(ctx context.Context) *domain.Identity {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		token = ""
	}
	v, _, _ := s.checks.Do("session:"+token, func() (any, error) {
		return s.checkSession(ctx, token), nil
	})
	identity, _ := v.(*domain.Identity)
	if identity == nil {
		return nil
	}
	clone := *identity
	return &clone
}

func (s *Service) checkSession(ctx context.Context, token string) *domain.Identity {
	id := s.dispatcher.NextRequestID()
	s.dispatcher.Dispatch(state.Pending{Type: OpCheckSession, RequestID: id})
	resolve := func(user *domain.Identity) *domain.Identity {
		s.dispatcher.Dispatch(SessionResolved{RequestID: id, User: user})
		return user
	}

	if token == "" {
		return resolve(nil)
	}
	if s.expired(token) {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "stored token expired")
		if err := s.tokens.ClearToken(ctx); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to clear expired token", slog.String("error", err.Error()))
		}
		return resolve(nil)
	}
	result, err := s.api.Session(ctx)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "session check failed", slog.String("error", err.Error()))
		return resolve(nil)
	}
	if !result.Success || result.User == nil {
		return resolve(nil)
	}
	user := result.User.WithDefaultRole(s.defaultRole)
	user.HasToken = true
	return resolve(&user)
}

// expired reports whether token is a JWT whose exp is in the past. Opaque
// tokens are left to the backend.
func (s *Service) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

// SignIn exchanges credentials for a token. A 2xx answer with success=false
// fails with *errors.AuthError. The caller stores the token and checks the
// session; Login does both.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := creds.Validate(); err != nil {
		return "", err
	}
	return state.RunAsync(ctx, s.dispatcher, OpSignIn, creds.Email, func(ctx context.Context) (string, error) {
		result, err := s.api.Login(ctx, creds)
		if err != nil {
			return "", err
		}
		return tokenFrom(result)
	})
}

// SignUp registers an account and returns its token.
func (s *Service) SignUp(ctx context.Context, form domain.SignUpForm) (string, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.TrimSpace(form.Email)
	if err := form.Validate(); err != nil {
		return "", err
	}
	return state.RunAsync(ctx, s.dispatcher, OpSignUp, form.Email, func(ctx context.Context) (string, error) {
		result, err := s.api.Register(ctx, form)
		if err != nil {
			return "", err
		}
		return tokenFrom(result)
	})
}

// Login signs in, stores the token, and refreshes the session.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	token, err := s.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.StartSession(ctx, token)
}

// Register signs up, stores the token, and refreshes the session.
func (s *Service) Register(ctx context.Context, form domain.SignUpForm) (*domain.Identity, error) {
	token, err := s.SignUp(ctx, form)
	if err != nil {
		return nil, err
	}
	return s.StartSession(ctx, token)
}

// StartSession stores token and resolves the identity behind it. A token
// the backend does not accept is removed again.
func (s *Service) StartSession(ctx context.Context, token string) (*domain.Identity, error) {
	if err := s.tokens.SetToken(ctx, token); err != nil {
		return nil, err
	}
	identity := s.CheckSession(ctx)
	if identity == nil {
		if err := s.tokens.ClearToken(ctx); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to clear rejected token", slog.String("error", err.Error()))
		}
		return nil, &apperrors.AuthError{Message: "Unable to establish a session."}
	}
	return identity, nil
}

// SignOut notifies the backend, clears the token, and ends the session. The
// backend call is best effort.
func (s *Service) SignOut(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "logout request failed", slog.String("error", err.Error()))
	}
	if err := s.tokens.ClearToken(ctx); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to clear token", slog.String("error", err.Error()))
	}
	s.dispatcher.Dispatch(SignedOut{})
}

// ForgotPassword asks the backend to mail a reset link to email and returns
// the backend's message.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	form := domain.PasswordRecovery{Email: strings.TrimSpace(email)}
	if err := form.Validate(); err != nil {
		return "", err
	}
	return state.RunAsync(ctx, s.dispatcher, OpForgotPassword, form.Email, func(ctx context.Context) (string, error) {
		result, err := s.api.ForgotPassword(ctx, form.Email)
		if err != nil {
			return "", err
		}
		return accountMessage(result)
	})
}

// ResetPassword sets a new password with the token from a reset link. The
// session is left alone; the caller signs in afterwards.
func (s *Service) ResetPassword(ctx context.Context, reset domain.PasswordReset) (string, error) {
	reset.Token = strings.TrimSpace(reset.Token)
	if err := reset.Validate(); err != nil {
		return "", err
	}
	return state.RunAsync(ctx, s.dispatcher, OpResetPassword, nil, func(ctx context.Context) (string, error) {
		result, err := s.api.ResetPassword(ctx, reset)
		if err != nil {
			return "", err
		}
		return accountMessage(result)
	})
}

// VerifyEmail confirms an address with the token from a verification mail.
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	form := domain.EmailVerification{Token: strings.TrimSpace(token)}
	if err := form.Validate(); err != nil {
		return "", err
	}
	return state.RunAsync(ctx, s.dispatcher, OpVerifyEmail, nil, func(ctx context.Context) (string, error) {
		result, err := s.api.VerifyEmail(ctx, form.Token)
		if err != nil {
			return "", err
		}
		return accountMessage(result)
	})
}

func accountMessage(result domain.AccountResult) (string, error) {
	if !result.Success {
		return "", &apperrors.AuthError{Message: result.Message}
	}
	return result.Message, nil
}

func tokenFrom(result domain.LoginResult) (string, error) {
	if !result.Success {
		return "", &apperrors.AuthError{Message: result.Message}
	}
	token := strings.TrimSpace(result.Token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.Message(err)
}
