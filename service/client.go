package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultBaseURL     = "http://localhost:3022"
	defaultUserAgent   = "cinetix-cli"
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
	requestIDHeader    = "X-Request-ID"
)

var (
	// ErrUnauthorized is returned for HTTP 401 on authenticated endpoints.
	// The stored token has already been dropped when callers see it.
	ErrUnauthorized     = errors.New("not authorized, sign in again")
	ErrSessionNotFound  = errors.New("movie session not found")
	ErrInvalidResponse  = errors.New("invalid response")
	errMissingParameter = errors.New("missing request parameter")
)

// Client wraps HTTP access to the Cinetix booking API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	log         *slog.Logger
	validate    *validator.Validate

	mu             sync.RWMutex
	token          func() string
	onUnauthorized func()
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
	// Message is the "message" field of a JSON error body, when present.
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return "cinetix api error"
	}
	if e.Message != "" {
		return fmt.Sprintf("cinetix api error: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("cinetix api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

// NewClient creates a new API client. An empty baseURL selects the local
// default and a nil httpClient gets a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		log:         slog.New(slog.DiscardHandler),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource installs the bearer token provider. An empty token sends
// no Authorization header.
func (c *Client) SetTokenSource(token func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// OnUnauthorized registers a hook run on every 401 from an authenticated
// endpoint.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

type request struct {
	method string
	path   string
	body   any
	// public requests skip the unauthorized hook; a 401 there means bad
	// credentials, not an expired token.
	public bool
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path

	var payload []byte
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = data
	}

	// Only reads are retried; a repeated POST could book or pay twice.
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 || r.method != http.MethodGet {
		maxAttempts = 1
	}

	requestID := uuid.NewString()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set(requestIDHeader, requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.currentToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		started := time.Now()
		res, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Debug("api request failed",
				slog.String("method", r.method),
				slog.String("path", r.path),
				slog.Int("attempt", attempt),
				slog.String("request_id", requestID),
				slog.String("error", err.Error()),
			)
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}
		c.log.Debug("api request",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.Int("status", res.StatusCode),
			slog.Int("attempt", attempt),
			slog.String("request_id", requestID),
			slog.Duration("elapsed", time.Since(started)),
		)

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
				Message:    errorMessage(snippet),
			}
			if res.StatusCode == http.StatusUnauthorized && !r.public {
				c.unauthorized()
				return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
			return nil
		}
		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == nil {
		return ""
	}
	return token()
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	ceiling := c.retryCap
	if ceiling <= 0 {
		ceiling = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= ceiling/2 {
			return ceiling
		}
		delay *= 2
	}
	return min(delay, ceiling)
}

// checkStruct validates a decoded DTO. Only the named fields are checked
// when fields is non-empty.
func (c *Client) checkStruct(endpoint string, v any, fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = c.validate.StructPartial(v, fields...)
	} else {
		err = c.validate.Struct(v)
	}
	if err != nil {
		return fmt.Errorf("%w from %s: %w", ErrInvalidResponse, endpoint, err)
	}
	return nil
}

func checkEach[T any](c *Client, endpoint string, items []T) error {
	for i := range items {
		if err := c.checkStruct(endpoint, &items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
