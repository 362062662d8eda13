// Package api is the dashboard's HTTP client adapter: it resolves paths against
// the configured base URL, injects the bearer token, enforces a fixed timeout,
// and classifies failures into the shared error taxonomy. It never retries,
// redirects, or clears the session on its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
)

// DefaultTimeout bounds every request; expiry is reported as a NetworkError.
const DefaultTimeout = 30 * time.Second

// TokenProvider supplies the bearer token for outgoing requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, bool)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, bool)

// Token calls fn.
func (fn TokenProviderFunc) Token(ctx context.Context) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(ctx)
}

// Client issues JSON requests against the dashboard backend.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	credentials    bool
	tokens         TokenProvider
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	saver          Saver
	headers        http.Header
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is still
// wrapped for tracing and its timeout is overridden by WithTimeout when set.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the fixed per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithCredentials keeps cookies between requests, the equivalent of sending
// credentials with every cross-origin call.
func WithCredentials(enabled bool) Option {
	return func(c *Client) { c.credentials = enabled }
}

// WithTokenProvider injects the source of the bearer token.
func WithTokenProvider(tokens TokenProvider) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithLogger sets the logger used to report failed responses.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTracerProvider sets the provider used by the otelhttp transport.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracerProvider = tp }
}

// WithSaver sets where Download persists named payloads.
func WithSaver(saver Saver) Option {
	return func(c *Client) { c.saver = saver }
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base URL is required")
	}
	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		headers: http.Header{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.tokens == nil {
		c.tokens = TokenProviderFunc(func(context.Context) (string, bool) { return "", false })
	}

	httpClient := &http.Client{}
	if c.httpClient != nil {
		clone := *c.httpClient
		httpClient = &clone
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	transportOpts := []otelhttp.Option{}
	if c.tracerProvider != nil {
		transportOpts = append(transportOpts, otelhttp.WithTracerProvider(c.tracerProvider))
	}
	httpClient.Transport = otelhttp.NewTransport(base, transportOpts...)
	if c.timeout > 0 {
		httpClient.Timeout = c.timeout
	}
	if c.credentials && httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("build cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}
	c.httpClient = httpClient
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Request performs a JSON request and returns the raw response body.
func (c *Client) Request(ctx context.Context, method, path string, body any, query map[string]any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	raw, err := c.send(req)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Do performs a JSON request and decodes the response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, query map[string]any, out any) error {
	raw, err := c.Request(ctx, method, path, body, query)
	if err != nil {
		return err
	}
	return decode(method, path, raw, out)
}

// Get issues a GET with query parameters.
func (c *Client) Get(ctx context.Context, path string, query map[string]any, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, query, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, nil, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, nil, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, nil, out)
}

// Delete issues a DELETE with query parameters.
func (c *Client) Delete(ctx context.Context, path string, query map[string]any, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, query, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query map[string]any, body io.Reader) (*http.Request, error) {
	target := c.resolve(path)
	if qs := ToQueryParams(query); qs != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + qs
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if token, ok := c.tokens.Token(ctx); ok && strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.LogAttrs(req.Context(), slog.LevelError, "network error",
			slog.String("method", req.Method), slog.String("url", req.URL.Path), slog.String("error", err.Error()))
		return nil, &apperrors.NetworkError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &apperrors.NetworkError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("read response: %w", err)}
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.logStatus(req, res.StatusCode, body)
		return nil, &apperrors.HTTPError{Method: req.Method, URL: req.URL.String(), Status: res.StatusCode, Body: body}
	}
	return body, nil
}

func (c *Client) logStatus(req *http.Request, status int, body []byte) {
	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("url", req.URL.Path),
		slog.Int("status", status),
	}
	if msg := apperrors.ServerMessage(body); msg != "" {
		attrs = append(attrs, slog.String("message", msg))
	}
	var msg string
	level := slog.LevelError
	switch {
	case status == http.StatusUnauthorized:
		msg, level = "unauthorized", slog.LevelWarn
	case status == http.StatusForbidden:
		msg = "access forbidden"
	case status == http.StatusNotFound:
		msg, level = "resource not found", slog.LevelWarn
	case status >= http.StatusInternalServerError:
		msg = "server error"
	default:
		msg = "api error"
	}
	c.logger.LogAttrs(req.Context(), level, msg, attrs...)
}

func decode(method, path string, raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
