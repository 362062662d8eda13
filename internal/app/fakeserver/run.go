// Package fakeserver runs the in-memory dashboard backend as a standalone
// HTTP process for local demos.
package fakeserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	"github.com/Apurer/admin-dashboard/internal/platform/fakeapi"
	platformobservability "github.com/Apurer/admin-dashboard/internal/platform/observability"
)

const serviceName = "dashboard-fakeapi"

// DemoUsers are seeded when SeedDemoUsers is set.
func DemoUsers() []userdomain.User {
	return []userdomain.User{
		{Name: "Grace Hopper", Email: "grace@example.com", Phone: "+1 555 0100", Role: userdomain.RoleAdmin, Status: userdomain.StatusActive},
		{Name: "Alan Turing", Email: "alan@example.com", Role: userdomain.RoleUser, Status: userdomain.StatusActive},
		{Name: "Ada Lovelace", Email: "ada@example.com", Role: userdomain.RoleModerator, Status: userdomain.StatusActive},
		{Name: "Edsger Dijkstra", Email: "edsger@example.com", Role: userdomain.RoleUser, Status: userdomain.StatusInactive},
		{Name: "Barbara Liskov", Email: "barbara@example.com", Role: userdomain.RoleUser, Status: userdomain.StatusActive},
	}
}

// NewBackend builds the backend described by cfg.
func NewBackend(cfg Config) *fakeapi.Backend {
	backend := fakeapi.NewBackend()
	backend.WithTokenTTL(cfg.TokenTTL)
	backend.AddAccount(authdomain.Identity{
		Email: cfg.AdminEmail,
		Name:  "Administrator",
		Role:  authdomain.RoleAdmin,
	}, cfg.AdminPassword)
	if cfg.SeedDemoUsers {
		backend.Seed(DemoUsers()...)
	}
	return backend
}

// NewHandler builds the router for backend, traced through instruments when
// it is set.
func NewHandler(backend *fakeapi.Backend, instruments *platformobservability.Instruments) *gin.Engine {
	opts := []fakeapi.RouterOption{fakeapi.WithServiceName(serviceName)}
	if instruments != nil && instruments.TracerProvider != nil {
		opts = append(opts, fakeapi.WithTracerProvider(instruments.TracerProvider))
	}
	return fakeapi.NewRouter(backend, opts...)
}

// Run boots the demo backend and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.WithLogLevel(platformobservability.ParseLevel(cfg.LogLevel)),
		platformobservability.WithTracing(cfg.Tracing),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewHandler(NewBackend(cfg), instruments),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard fake API listening",
			slog.String("addr", server.Addr),
			slog.String("admin", cfg.AdminEmail),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Dashboard fake API exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logger.Info("Dashboard fake API stopped")
	return nil
}
