package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	authports "github.com/Apurer/admin-dashboard/internal/domains/auth/ports"
)

const tracerName = "github.com/Apurer/admin-dashboard/internal/domains/auth/adapters/observability/api"

// API decorates the authentication API with tracing, logging, and metrics.
type API struct {
	inner   authports.API
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics apiMetrics
}

type Option func(*API)

func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(a *API) { a.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(a *API) { a.metrics = newAPIMetrics(m) }
}

// New wraps the authentication API.
func New(inner authports.API, opts ...Option) authports.API {
	a := &API{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newAPIMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.tracer == nil {
		a.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if a.logger == nil {
		a.logger = defaultLogger()
	}
	return a
}

func (a *API) Session(ctx context.Context) (authdomain.SessionResult, error) {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.Session")
	defer span.End()
	result, err := a.inner.Session(ctx)
	if err != nil {
		return result, a.handleError(ctx, span, err, "session check failed")
	}
	span.SetAttributes(attribute.Bool("auth.session.success", result.Success))
	a.metrics.recordSessionCheck(ctx, result.Success)
	return result, nil
}

func (a *API) Login(ctx context.Context, creds authdomain.Credentials) (authdomain.LoginResult, error) {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.Login", trace.WithAttributes(attribute.String("auth.email", creds.Email)))
	defer span.End()
	a.logInfo(ctx, "signing in", slog.String("email", creds.Email))
	result, err := a.inner.Login(ctx, creds)
	if err != nil {
		return result, a.handleError(ctx, span, err, "sign-in request failed", slog.String("email", creds.Email))
	}
	if !result.Success {
		span.SetStatus(codes.Error, "rejected by server")
		a.logger.LogAttrs(ctx, slog.LevelWarn, "sign-in rejected", slog.String("email", creds.Email), slog.String("message", result.Message))
		return result, nil
	}
	a.metrics.recordLogin(ctx)
	return result, nil
}

func (a *API) Logout(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.Logout")
	defer span.End()
	if err := a.inner.Logout(ctx); err != nil {
		return a.handleError(ctx, span, err, "sign-out request failed")
	}
	return nil
}

func (a *API) Register(ctx context.Context, form authdomain.SignUpForm) (authdomain.LoginResult, error) {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.Register", trace.WithAttributes(attribute.String("auth.email", form.Email)))
	defer span.End()
	result, err := a.inner.Register(ctx, form)
	if err != nil {
		return result, a.handleError(ctx, span, err, "registration failed", slog.String("email", form.Email))
	}
	if result.Success {
		a.metrics.recordRegistration(ctx)
		a.logInfo(ctx, "account registered", slog.String("email", form.Email))
	}
	return result, nil
}

func (a *API) ForgotPassword(ctx context.Context, email string) (authdomain.AccountResult, error) {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.ForgotPassword", trace.WithAttributes(attribute.String("auth.email", email)))
	defer span.End()
	result, err := a.inner.ForgotPassword(ctx, email)
	if err != nil {
		return result, a.handleError(ctx, span, err, "password recovery request failed", slog.String("email", email))
	}
	a.logInfo(ctx, "password recovery requested", slog.String("email", email))
	a.metrics.recordAccountRequest(ctx, "forgot_password", result.Success)
	return result, nil
}

func (a *API) ResetPassword(ctx context.Context, reset authdomain.PasswordReset) (authdomain.AccountResult, error) {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.ResetPassword")
	defer span.End()
	result, err := a.inner.ResetPassword(ctx, reset)
	if err != nil {
		return result, a.handleError(ctx, span, err, "password reset failed")
	}
	if !result.Success {
		span.SetStatus(codes.Error, "rejected by server")
		a.logger.LogAttrs(ctx, slog.LevelWarn, "password reset rejected", slog.String("message", result.Message))
	}
	a.metrics.recordAccountRequest(ctx, "reset_password", result.Success)
	return result, nil
}

func (a *API) VerifyEmail(ctx context.Context, token string) (authdomain.AccountResult, error) {
	ctx, span := a.tracer.Start(ctx, "AuthAPI.VerifyEmail")
	defer span.End()
	result, err := a.inner.VerifyEmail(ctx, token)
	if err != nil {
		return result, a.handleError(ctx, span, err, "email verification failed")
	}
	span.SetAttributes(attribute.Bool("auth.email.verified", result.Success))
	a.metrics.recordAccountRequest(ctx, "verify_email", result.Success)
	return result, nil
}

func (a *API) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if a.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		a.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

func (a *API) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

type apiMetrics struct {
	sessionChecks metric.Int64Counter
	logins        metric.Int64Counter
	registrations metric.Int64Counter
	accounts      metric.Int64Counter
}

func newAPIMetrics(m metric.Meter) apiMetrics {
	if m == nil {
		return apiMetrics{}
	}
	checks, _ := m.Int64Counter("auth.api.session_checks", metric.WithDescription("Number of completed session checks"))
	logins, _ := m.Int64Counter("auth.api.logins", metric.WithDescription("Number of successful sign-ins"))
	registrations, _ := m.Int64Counter("auth.api.registrations", metric.WithDescription("Number of successful registrations"))
	accounts, _ := m.Int64Counter("auth.api.account_requests", metric.WithDescription("Number of completed account maintenance requests"))
	return apiMetrics{sessionChecks: checks, logins: logins, registrations: registrations, accounts: accounts}
}

func (m apiMetrics) recordSessionCheck(ctx context.Context, authenticated bool) {
	if m.sessionChecks != nil {
		m.sessionChecks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("authenticated", authenticated)))
	}
}

func (m apiMetrics) recordLogin(ctx context.Context) {
	if m.logins != nil {
		m.logins.Add(ctx, 1)
	}
}

func (m apiMetrics) recordRegistration(ctx context.Context) {
	if m.registrations != nil {
		m.registrations.Add(ctx, 1)
	}
}

func (m apiMetrics) recordAccountRequest(ctx context.Context, kind string, success bool) {
	if m.accounts != nil {
		m.accounts.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.Bool("success", success)))
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ authports.API = (*API)(nil)
