// Package apiclient is the HTTP transport to the church REST backend. It
// attaches the bearer token, classifies failures into Kinds and reports
// 401/403 responses to the session exactly as the request saw them.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/telemetry"
)

// LoginPath is exempt from session invalidation
const LoginPath = "/auth/login"

const requestIDHeader = "X-Request-ID"

// Session supplies the bearer token and is told when the backend rejects it
type Session interface {
	Token() string
	// HandleUnauthorized receives the token the failing request carried
	HandleUnauthorized(ctx context.Context, sentToken, path string)
}

// Options configures a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *logger.Logger
	Metrics   *telemetry.ClientMetrics
}

// Client issues JSON requests against the backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	metrics    *telemetry.ClientMetrics

	mu      sync.RWMutex
	session Session
}

// New creates a Client. The transport is wrapped for tracing.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &telemetry.ClientMetrics{}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: telemetry.HTTPTransport(opts.Transport),
		},
		log:     log.Named("apiclient"),
		metrics: metrics,
	}
}

// SetSession attaches the token source. It may be called once wiring is done.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the body into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with body encoded as JSON
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with body encoded as JSON
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, query, body, out)
}

// Patch issues a PATCH with body encoded as JSON
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE
func (c *Client) Delete(ctx context.Context, path string, query url.Values) error {
	return c.Do(ctx, http.MethodDelete, path, query, nil, nil)
}

// Do sends one request. out may be nil, *[]byte for the raw body, or any
// value json can decode into.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return decodeInto(method+" "+path, raw, out)
}

// GetList fetches a list endpoint that answers with either a bare array or
// a page envelope
func GetList[T any](ctx context.Context, c *Client, path string, query url.Values) (response.Page[T], error) {
	raw, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return response.Page[T]{}, err
	}
	page, err := response.DecodeList[T](raw)
	if err != nil {
		return response.Page[T]{}, &Error{Kind: KindUnknown, Op: "GET " + path, Err: err}
	}
	return page, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	op := method + " " + path
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "api."+method)
	defer span.End()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	session := c.currentSession()
	var sentToken string
	if session != nil {
		sentToken = session.Token()
	}
	if sentToken != "" {
		req.Header.Set("Authorization", "Bearer "+sentToken)
	}

	log := c.log.WithContext(logger.WithRequestID(ctx, requestID))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := transportError(op, err)
		c.record(ctx, method, path, 0, apiErr.Kind, start)
		telemetry.SetSpanError(ctx, apiErr)
		log.Warn("request failed", zap.String("op", op), zap.Error(err))
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := transportError(op, err)
		c.record(ctx, method, path, resp.StatusCode, apiErr.Kind, start)
		return nil, apiErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.record(ctx, method, path, resp.StatusCode, KindUnknown, start)
		log.Debug("request completed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return data, nil
	}

	apiErr := statusError(op, resp.StatusCode, data)
	c.record(ctx, method, path, resp.StatusCode, apiErr.Kind, start)
	telemetry.SetSpanError(ctx, apiErr)
	log.Warn("request rejected",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("kind", apiErr.Kind.String()),
	)

	if apiErr.Kind == KindUnauthorized && path != LoginPath && session != nil {
		session.HandleUnauthorized(ctx, sentToken, path)
	}
	return nil, apiErr
}

func (c *Client) record(ctx context.Context, method, path string, status int, kind Kind, start time.Time) {
	attrs := []attribute.KeyValue{
		telemetry.MethodAttr(method),
		telemetry.RouteAttr(routeTemplate(path)),
		telemetry.StatusCodeAttr(status),
	}
	if status == 0 || status >= 400 {
		attrs = append(attrs, telemetry.ErrorKindAttr(kind.String()))
	}
	c.metrics.Requests.Inc(ctx, attrs...)
	c.metrics.RequestDuration.Record(ctx, time.Since(start).Seconds(), attrs...)
}

// routeTemplate replaces numeric path segments so metric cardinality stays
// bounded
func routeTemplate(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func decodeInto(op string, raw []byte, out any) error {
	switch dst := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*dst = raw
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
