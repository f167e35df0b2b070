// Package apiclient is a client for the ARABAH REST backend.
//
// Every endpoint returns its decoded payload or a *request.NetworkError, so methods can be
// used directly as orchestrator request functions.
//
// Example usage:
//
//	client, err := apiclient.New("https://api.arabah.example", apiclient.WithTokenSource(store))
//	categories, err := client.Categories(ctx)
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/arabah/arabah/request"
)

const (
	// DefaultTimeout bounds each HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize bounds how much of a response body is read.
	MaxResponseSize = 8 << 20

	headerRequestID = "X-Request-ID"
)

// TokenSource supplies the bearer token for authenticated calls. An empty token sends
// no Authorization header.
type TokenSource interface {
	Token() string
}

// Client represents an ARABAH API client.
// Use New() to create a new client for a given backend.
type Client struct {
	baseURL  *url.URL
	client   *http.Client
	logger   *slog.Logger
	tokens   TokenSource
	language string
	limiter  *rate.Limiter
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithLogger sets a custom logger for the client
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLanguage sets the Accept-Language sent with every request ("en" or "ar").
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New creates a new Client for the given backend.
// The host should include the scheme (e.g., "https://api.arabah.example").
func New(host string, opts ...Option) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("host URL must include scheme and host: %q", host)
	}

	c := &Client{
		baseURL:  u,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   slog.Default(),
		language: LanguageEnglish,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "apiclient")
	return c, nil
}

// Language returns the Accept-Language the client sends.
func (c *Client) Language() string {
	return c.language
}

// buildURL appends path to the base URL, keeping any path prefix on the host.
// path may carry a query string.
func (c *Client) buildURL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, in any) (*http.Response, error) {
	u, err := c.buildURL(path)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.language)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := request.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(headerRequestID, id)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &request.NetworkError{Kind: request.KindTimeout, Message: "rate limit exceeded", Err: err}
		}
	}

	c.logger.Debug("api request", "method", method, "path", path, "request_id", req.Header.Get(headerRequestID))
	return c.client.Do(req)
}

// envelope wraps every backend response.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// send performs one exchange and decodes the envelope. When out is nil a missing body
// is accepted.
func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.doRequest(ctx, method, path, in)
	if err != nil {
		return request.AsNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return request.AsNetworkError(fmt.Errorf("failed to read response: %w", err))
	}
	if len(data) > MaxResponseSize {
		return request.InvalidResponse(fmt.Sprintf("response exceeds %d bytes", MaxResponseSize))
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return &request.NetworkError{Kind: request.KindDecoding, Message: "malformed response", Err: decodeErr}
	}
	if !env.Success {
		ne := request.BadRequest(env.Message)
		ne.StatusCode = resp.StatusCode
		return ne
	}
	if out == nil {
		return nil
	}
	if len(env.Body) == 0 || bytes.Equal(env.Body, []byte("null")) {
		return request.InvalidResponse("missing response body")
	}
	if err := json.Unmarshal(env.Body, out); err != nil {
		return &request.NetworkError{Kind: request.KindDecoding, Message: "malformed response body", Err: err}
	}
	return nil
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return call[T](ctx, c, http.MethodGet, path, nil)
}

func call[T any](ctx context.Context, c *Client, method, path string, in any) (T, error) {
	var out T
	if err := c.send(ctx, method, path, in, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// statusError maps a non-2xx status to a NetworkError, keeping the server's message.
func statusError(status int, message string) *request.NetworkError {
	if message == "" {
		message = http.StatusText(status)
	}
	ne := &request.NetworkError{Message: message, StatusCode: status}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		ne.Kind = request.KindUnauthorized
	case status == http.StatusNotFound:
		ne.Kind = request.KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		ne.Kind = request.KindTimeout
	case status >= 500:
		ne.Kind = request.KindServer
	default:
		ne.Kind = request.KindBadRequest
	}
	return ne
}
