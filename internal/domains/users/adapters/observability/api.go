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

	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
	userports "github.com/Apurer/admin-dashboard/internal/domains/users/ports"
)

const tracerName = "github.com/Apurer/admin-dashboard/internal/domains/users/adapters/observability/api"

// API decorates the user API with tracing, logging, and metrics.
type API struct {
	inner   userports.API
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

// New wraps the user API.
func New(inner userports.API, opts ...Option) userports.API {
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

func (a *API) List(ctx context.Context, filters userdomain.Filters) (userdomain.Page, error) {
	ctx, span := a.tracer.Start(ctx, "UserAPI.List", trace.WithAttributes(
		attribute.Int("users.filters.page", filters.Page),
		attribute.Int("users.filters.limit", filters.Limit),
		attribute.Bool("users.filters.search", filters.Search != ""),
	))
	defer span.End()
	page, err := a.inner.List(ctx, filters)
	if err != nil {
		return page, a.handleError(ctx, span, err, "failed to list users", slog.Int("page", filters.Page))
	}
	span.SetAttributes(attribute.Int("users.total", page.Total), attribute.Int("users.returned", len(page.List)))
	a.metrics.recordFetched(ctx)
	return page, nil
}

func (a *API) Get(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	ctx, span := a.tracer.Start(ctx, "UserAPI.Get", trace.WithAttributes(attribute.String("user.id", string(id))))
	defer span.End()
	user, err := a.inner.Get(ctx, id)
	if err != nil {
		return user, a.handleError(ctx, span, err, "failed to fetch user", slog.String("id", string(id)))
	}
	return user, nil
}

func (a *API) Create(ctx context.Context, in userdomain.Input) (userdomain.User, error) {
	ctx, span := a.tracer.Start(ctx, "UserAPI.Create", trace.WithAttributes(attribute.String("user.email", in.Email)))
	defer span.End()
	a.logInfo(ctx, "creating user", slog.String("email", in.Email))
	user, err := a.inner.Create(ctx, in)
	if err != nil {
		return user, a.handleError(ctx, span, err, "failed to create user", slog.String("email", in.Email))
	}
	a.metrics.recordCreated(ctx)
	a.logInfo(ctx, "user created", slog.String("id", string(user.ID)))
	return user, nil
}

func (a *API) Update(ctx context.Context, id userdomain.ID, in userdomain.Input) (userdomain.User, error) {
	ctx, span := a.tracer.Start(ctx, "UserAPI.Update", trace.WithAttributes(attribute.String("user.id", string(id))))
	defer span.End()
	user, err := a.inner.Update(ctx, id, in)
	if err != nil {
		return user, a.handleError(ctx, span, err, "failed to update user", slog.String("id", string(id)))
	}
	a.metrics.recordUpdated(ctx)
	return user, nil
}

func (a *API) Delete(ctx context.Context, id userdomain.ID) error {
	ctx, span := a.tracer.Start(ctx, "UserAPI.Delete", trace.WithAttributes(attribute.String("user.id", string(id))))
	defer span.End()
	if err := a.inner.Delete(ctx, id); err != nil {
		return a.handleError(ctx, span, err, "failed to delete user", slog.String("id", string(id)))
	}
	a.metrics.recordDeleted(ctx, 1)
	a.logInfo(ctx, "user deleted", slog.String("id", string(id)))
	return nil
}

func (a *API) BulkDelete(ctx context.Context, ids []userdomain.ID) error {
	ctx, span := a.tracer.Start(ctx, "UserAPI.BulkDelete", trace.WithAttributes(attribute.Int("user.batch.count", len(ids))))
	defer span.End()
	if err := a.inner.BulkDelete(ctx, ids); err != nil {
		return a.handleError(ctx, span, err, "failed to delete users", slog.Int("count", len(ids)))
	}
	a.metrics.recordDeleted(ctx, int64(len(ids)))
	return nil
}

func (a *API) SetStatus(ctx context.Context, id userdomain.ID, status string) (userdomain.User, error) {
	ctx, span := a.tracer.Start(ctx, "UserAPI.SetStatus", trace.WithAttributes(
		attribute.String("user.id", string(id)),
		attribute.String("user.status", status),
	))
	defer span.End()
	user, err := a.inner.SetStatus(ctx, id, status)
	if err != nil {
		return user, a.handleError(ctx, span, err, "failed to change user status", slog.String("id", string(id)), slog.String("status", status))
	}
	a.metrics.recordUpdated(ctx)
	a.logInfo(ctx, "user status changed", slog.String("id", string(id)), slog.String("status", status))
	return user, nil
}

func (a *API) Stats(ctx context.Context, filters userdomain.Filters) (userdomain.Stats, error) {
	ctx, span := a.tracer.Start(ctx, "UserAPI.Stats")
	defer span.End()
	stats, err := a.inner.Stats(ctx, filters)
	if err != nil {
		return stats, a.handleError(ctx, span, err, "failed to load user stats")
	}
	span.SetAttributes(attribute.Int("user.stats.total", stats.Total))
	return stats, nil
}

func (a *API) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	a.logError(ctx, msg, err, attrs...)
	return err
}

func (a *API) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (a *API) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	a.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type apiMetrics struct {
	usersFetched metric.Int64Counter
	usersCreated metric.Int64Counter
	usersUpdated metric.Int64Counter
	usersDeleted metric.Int64Counter
}

func newAPIMetrics(m metric.Meter) apiMetrics {
	if m == nil {
		return apiMetrics{}
	}
	fetched, _ := m.Int64Counter("users.api.list_fetches", metric.WithDescription("Number of user list pages fetched"))
	created, _ := m.Int64Counter("users.api.created", metric.WithDescription("Number of users created"))
	updated, _ := m.Int64Counter("users.api.updated", metric.WithDescription("Number of users updated"))
	deleted, _ := m.Int64Counter("users.api.deleted", metric.WithDescription("Number of users deleted"))
	return apiMetrics{usersFetched: fetched, usersCreated: created, usersUpdated: updated, usersDeleted: deleted}
}

func (m apiMetrics) recordFetched(ctx context.Context) {
	if m.usersFetched != nil {
		m.usersFetched.Add(ctx, 1)
	}
}

func (m apiMetrics) recordCreated(ctx context.Context) {
	if m.usersCreated != nil {
		m.usersCreated.Add(ctx, 1)
	}
}

func (m apiMetrics) recordUpdated(ctx context.Context) {
	if m.usersUpdated != nil {
		m.usersUpdated.Add(ctx, 1)
	}
}

func (m apiMetrics) recordDeleted(ctx context.Context, n int64) {
	if m.usersDeleted != nil {
		m.usersDeleted.Add(ctx, n)
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.API = (*API)(nil)
