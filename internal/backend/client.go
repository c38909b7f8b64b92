// Package backend provides the HTTP client for the knowledge-base backend.
//
// Every endpoint the dashboard consumes lives here: document imports, job
// status, semantic search, AI reviews, collections, code repositories and
// the knowledge graph. The backend owns all request/response formats; this
// package mirrors them as flat DTOs and adds no client-side invariants
// beyond type shape.
//
// Error contract:
//   - Non-OK HTTP responses become *APIError carrying the server's
//     human-readable detail verbatim. Nothing retries automatically.
//   - Transport failures are wrapped and returned as-is; presentation
//     layers surface them as a generic connectivity message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/docdash/docdash/internal/log"
)

// apiPrefix is the version prefix the backend mounts all routes under.
const apiPrefix = "/api/v1"

// APIError is a backend-rejected request (non-2xx status).
// Detail carries the server-provided message verbatim.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string
	// Token is the bearer token attached to requests. Empty = no auth header.
	Token string
	// UserEmail is attached to import requests when set.
	UserEmail string
	// Timeout bounds non-streaming requests. Default 30s.
	Timeout time.Duration
	// RateLimit / RateBurst throttle outgoing calls client-side.
	// Zero values disable throttling.
	RateLimit float64
	RateBurst int
	// Logger for request diagnostics. Nil = nop.
	Logger log.Logger
}

// Client is the typed HTTP client for the backend.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL   string
	token     string
	userEmail string
	httpc     *http.Client // bounded by Timeout
	streamc   *http.Client // unbounded: SSE connections outlive any fixed timeout
	limiter   *rate.Limiter
	tracer    trace.Tracer
	logger    log.Logger
}

// New creates a backend client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("backend.New: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("backend.New: parsing base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:   base,
		token:     opts.Token,
		userEmail: opts.UserEmail,
		httpc:     &http.Client{Timeout: timeout},
		streamc:   &http.Client{}, // canceled via request context
		limiter:   limiter,
		tracer:    otel.Tracer("docdash/backend"),
		logger:    logger,
	}, nil
}

// UserEmail returns the configured user email (may be empty).
func (c *Client) UserEmail() string { return c.userEmail }

// endpoint builds a full URL under the API prefix.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newRequest creates a request with auth and content headers set.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes a JSON request/response roundtrip.
// A non-2xx status is decoded into *APIError with the server detail verbatim.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", apiPrefix+path),
		))
	defer span.End()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp)
		span.SetStatus(codes.Error, apiErr.Error())
		c.logger.Debug("backend rejected request",
			"method", method, "path", path,
			"status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) del(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// openStream issues a GET expecting a text/event-stream response and
// returns the raw response. The caller owns the body and must close it;
// cancellation happens through ctx (the stream client has no timeout).
func (c *Client) openStream(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening stream %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp)
		_ = resp.Body.Close()
		return nil, apiErr
	}
	return resp, nil
}

// errorFromResponse extracts the server's detail message from an error response.
// FastAPI-style backends return {"detail": "..."}; anything else falls back to
// the raw body, then to the bare status code.
func errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
		return apiErr
	}

	if s := strings.TrimSpace(string(data)); s != "" && !strings.HasPrefix(s, "<") {
		apiErr.Detail = s
	}
	return apiErr
}
