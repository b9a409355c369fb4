package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultAnthropicVersion is sent when an Anthropic-style caller omits the
// anthropic-version header.
const DefaultAnthropicVersion = "2023-06-01"

// Config configures the upstream client.
type Config struct {
	// BaseURL is the upstream root, e.g. "https://api.example.com".
	BaseURL string

	// APIKey is the upstream credential injected on every attempt.
	APIKey string

	// AnthropicVersion is the default anthropic-version header.
	AnthropicVersion string

	// Connection pool settings. Zero values use the defaults below.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Client sends Calls to the upstream with the upstream credential injected.
// It is safe for concurrent use.
type Client struct {
	base             *url.URL
	apiKey           string
	anthropicVersion string
	http             *http.Client
	logger           *slog.Logger
}

// NewClient creates an upstream client with connection pooling.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("upstream base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 100
	}
	maxIdlePerHost := cfg.MaxIdleConnsPerHost
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = 32
	}
	idleTimeout := cfg.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdle,
		MaxIdleConnsPerHost: maxIdlePerHost,
		IdleConnTimeout:     idleTimeout,
		ForceAttemptHTTP2:   true,
	}

	version := cfg.AnthropicVersion
	if version == "" {
		version = DefaultAnthropicVersion
	}

	return &Client{
		base:             base,
		apiKey:           cfg.APIKey,
		anthropicVersion: version,
		// Timeouts are applied per attempt through the request context.
		http:   &http.Client{Transport: transport},
		logger: logger.With("component", "upstream"),
	}, nil
}

// Attempt returns a closure that sends call once per invocation. Each
// invocation builds a fresh request, so the body and credential are re-sent.
func (c *Client) Attempt(call Call) func(ctx context.Context) (*http.Response, error) {
	return func(ctx context.Context) (*http.Response, error) {
		return c.Send(ctx, call)
	}
}

// Send performs one attempt of call. The returned response body must be
// closed; closing it also releases the attempt's timeout.
func (c *Client) Send(ctx context.Context, call Call) (*http.Response, error) {
	if call.Stream {
		return c.sendStream(ctx, call)
	}

	attemptCtx, cancel := withOptionalTimeout(ctx, call.Timeout)
	req, err := c.newRequest(attemptCtx, call)
	if err != nil {
		cancel()
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// sendStream applies the timeout to the handshake only. Once headers arrive
// the stream may run for as long as the upstream keeps sending.
func (c *Client) sendStream(ctx context.Context, call Call) (*http.Response, error) {
	attemptCtx, cancel := context.WithCancelCause(ctx)
	var timer *time.Timer
	if call.Timeout > 0 {
		timer = time.AfterFunc(call.Timeout, func() {
			cancel(&TimeoutError{After: call.Timeout})
		})
	}
	release := func() {
		if timer != nil {
			timer.Stop()
		}
		cancel(nil)
	}

	req, err := c.newRequest(attemptCtx, call)
	if err != nil {
		release()
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cause := context.Cause(attemptCtx)
		release()
		var timeoutErr *TimeoutError
		if errors.As(cause, &timeoutErr) {
			return nil, timeoutErr
		}
		return nil, err
	}

	if timer != nil && !timer.Stop() {
		// The handshake timer fired while headers were being returned.
		resp.Body.Close()
		release()
		return nil, &TimeoutError{After: call.Timeout}
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: func() { cancel(nil) }}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	target := *c.base
	target.Path = singleJoiningSlash(c.base.Path, call.Path)

	var body io.Reader
	if len(call.Body) > 0 {
		body = bytes.NewReader(call.Body)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}

	for key, values := range call.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if len(call.Body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Stream && req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/event-stream")
	}

	c.injectCredential(req.Header, call.Auth)
	return req, nil
}

// injectCredential sets the upstream credential. It runs on every attempt so
// a retried request never reuses a header map touched by a previous attempt.
func (c *Client) injectCredential(h http.Header, scheme AuthScheme) {
	h.Del("Authorization")
	h.Del("X-Api-Key")
	switch scheme {
	case AuthAPIKey:
		h.Set("X-Api-Key", c.apiKey)
		if h.Get("Anthropic-Version") == "" {
			h.Set("Anthropic-Version", c.anthropicVersion)
		}
	default:
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Close releases idle upstream connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	c.logger.Debug("upstream client closed")
	return nil
}

// TimeoutError reports an attempt that exceeded its timeout. It satisfies
// net.Error so classifiers treat it like any other transport timeout.
type TimeoutError struct {
	// After is the attempt timeout that elapsed.
	After time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream did not respond within %s", e.After)
}

// Timeout implements net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// Temporary implements net.Error.
func (e *TimeoutError) Temporary() bool { return true }

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
	once   sync.Once
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.cancel)
	return err
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// singleJoiningSlash joins two URL paths with a single slash.
func singleJoiningSlash(a, b string) string {
	aSlash := strings.HasSuffix(a, "/")
	bSlash := strings.HasPrefix(b, "/")
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	}
	return a + b
}
