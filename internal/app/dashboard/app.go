// Package dashboard composes the dashboard client: one state store, the
// authenticated HTTP adapter, the auth, users and UI slices, and the CLI
// that drives them.
package dashboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Apurer/admin-dashboard/internal/clients/http/api"
	authfs "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/filesystem"
	authhttp "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/http"
	authmemory "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/memory"
	authobs "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/observability"
	authapp "github.com/Apurer/admin-dashboard/internal/domains/auth/application"
	authports "github.com/Apurer/admin-dashboard/internal/domains/auth/ports"
	uiapp "github.com/Apurer/admin-dashboard/internal/domains/ui/application"
	userhttp "github.com/Apurer/admin-dashboard/internal/domains/users/adapters/http"
	userobs "github.com/Apurer/admin-dashboard/internal/domains/users/adapters/observability"
	userapp "github.com/Apurer/admin-dashboard/internal/domains/users/application"
	platformobservability "github.com/Apurer/admin-dashboard/internal/platform/observability"
	"github.com/Apurer/admin-dashboard/internal/state"
)

// App is the wired dashboard core.
type App struct {
	Config    Config
	Store     *state.Store[State]
	Tokens    authports.TokenStore
	Auth      *authapp.Service
	Users     *userapp.Service
	Transfers *userapp.Transfers
	Feedback  *uiapp.Feedback
	Confirmer *uiapp.Confirmer
	Logger    *slog.Logger
}

type appOptions struct {
	tokens      authports.TokenStore
	logger      *slog.Logger
	instruments *platformobservability.Instruments
	httpClient  *http.Client
	middleware  []state.Middleware[State]
}

// Option customizes New.
type Option func(*appOptions)

// WithTokenStore replaces the token store chosen by Config.TokenStore.
func WithTokenStore(tokens authports.TokenStore) Option {
	return func(o *appOptions) { o.tokens = tokens }
}

// WithLogger sets the logger; instruments' logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) { o.logger = logger }
}

// WithInstruments traces and meters the HTTP adapter and both API ports.
func WithInstruments(instruments *platformobservability.Instruments) Option {
	return func(o *appOptions) { o.instruments = instruments }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *appOptions) { o.httpClient = client }
}

// WithStoreMiddleware appends store middleware after the action logger.
func WithStoreMiddleware(mw ...state.Middleware[State]) Option {
	return func(o *appOptions) { o.middleware = append(o.middleware, mw...) }
}

// New wires every slice around a single store.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o appOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := o.logger
	if logger == nil && o.instruments != nil {
		logger = o.instruments.Logger
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tokens := o.tokens
	if tokens == nil {
		var err error
		if tokens, err = openTokenStore(cfg); err != nil {
			return nil, err
		}
	}

	clientOpts := []api.Option{
		api.WithTimeout(cfg.Timeout),
		api.WithCredentials(cfg.Credentials),
		api.WithTokenProvider(tokens),
		api.WithLogger(logger),
		api.WithSaver(api.DirSaver{Dir: cfg.DownloadDir}),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	if o.instruments != nil {
		clientOpts = append(clientOpts, api.WithTracerProvider(o.instruments.TracerProvider))
	}
	apiClient, err := api.NewClient(cfg.APIBaseURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}

	authClient, err := authhttp.NewClient(apiClient)
	if err != nil {
		return nil, err
	}
	userClient, err := userhttp.NewClient(apiClient)
	if err != nil {
		return nil, err
	}
	authAPI := authobs.New(
		authClient,
		authobs.WithLogger(logger),
		authobs.WithTracer(o.instruments.Tracer("internal.domains.auth")),
		authobs.WithMeter(o.instruments.Meter("internal.domains.auth")),
	)
	userAPI := userobs.New(
		userClient,
		userobs.WithLogger(logger),
		userobs.WithTracer(o.instruments.Tracer("internal.domains.users")),
		userobs.WithMeter(o.instruments.Meter("internal.domains.users")),
	)

	app := &App{Config: cfg, Tokens: tokens, Logger: logger}
	app.Store = NewStore(cfg, logger, o.middleware...)

	if app.Auth, err = authapp.NewService(authAPI, tokens, app.Store,
		authapp.WithLogger(logger),
		authapp.WithDefaultRole(cfg.DefaultRole),
	); err != nil {
		return nil, err
	}
	if app.Users, err = userapp.NewService(userAPI, app.Store, app.usersState); err != nil {
		return nil, err
	}
	if app.Transfers, err = userapp.NewTransfers(userClient, app.Store, app.usersState); err != nil {
		return nil, err
	}
	if app.Feedback, err = uiapp.NewFeedback(app.Store); err != nil {
		return nil, err
	}
	if app.Confirmer, err = uiapp.NewConfirmer(app.Store, app.uiState); err != nil {
		return nil, err
	}
	return app, nil
}

// openTokenStore builds the configured store. The memory store keeps the
// token for the life of the process only.
func openTokenStore(cfg Config) (authports.TokenStore, error) {
	if cfg.TokenStore == TokenStoreMemory {
		return authmemory.NewTokenStore(), nil
	}
	fileTokens, err := authfs.NewTokenStore(cfg.TokenDir)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	return fileTokens, nil
}

// ErrNotSignedIn is returned by commands that need an authenticated session.
var ErrNotSignedIn = errors.New("not signed in: run `dashboard login` first")

// Session returns the current session state.
func (a *App) Session() authapp.State { return a.authState() }
