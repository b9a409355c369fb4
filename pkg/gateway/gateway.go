package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"mercator-hq/relay/pkg/classify"
	"mercator-hq/relay/pkg/proxy"
	"mercator-hq/relay/pkg/proxy/middleware"
	"mercator-hq/relay/pkg/retry"
	"mercator-hq/relay/pkg/stats"
	"mercator-hq/relay/pkg/upstream"
)

// Upstream sends calls to the upstream service. *upstream.Client implements it.
type Upstream interface {
	Attempt(call upstream.Call) func(ctx context.Context) (*http.Response, error)
}

// Metrics receives per-request and per-attempt measurements.
// *metrics.Collector implements it.
type Metrics interface {
	RecordRequest(endpoint, status, reason string, retries int, duration time.Duration)
	RecordRequestSize(endpoint string, size int)
	RecordAttempt(endpoint, verdict, reason string, duration time.Duration)
	RecordStreamEvents(endpoint string, n int)
}

// Config configures a Gateway.
type Config struct {
	Upstream Upstream
	Recorder *stats.Recorder

	// Metrics may be nil.
	Metrics Metrics

	Logger  *slog.Logger
	Options Options
}

// Gateway authenticates callers, forwards their requests through the retry
// controller or the streaming relay, and records every request exactly once.
type Gateway struct {
	upstream Upstream
	recorder *stats.Recorder
	metrics  Metrics
	logger   *slog.Logger

	current atomic.Pointer[runtime]
}

// New creates a Gateway. It fails if the options are unusable.
func New(cfg Config) (*Gateway, error) {
	if cfg.Upstream == nil {
		return nil, errors.New("gateway requires an upstream")
	}
	if cfg.Recorder == nil {
		return nil, errors.New("gateway requires a stats recorder")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	g := &Gateway{
		upstream: cfg.Upstream,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("component", "gateway"),
	}
	if err := g.Apply(cfg.Options); err != nil {
		return nil, err
	}
	return g, nil
}

// Apply swaps in new options. Requests already in flight finish with the
// options they started with. On error the current options stay in effect.
func (g *Gateway) Apply(opts Options) error {
	rt, err := g.build(opts)
	if err != nil {
		return fmt.Errorf("invalid gateway options: %w", err)
	}
	g.current.Store(rt)
	return nil
}

// Options returns the options currently in effect.
func (g *Gateway) Options() Options {
	return g.current.Load().opts
}

// MaxAttempts returns the attempt ceiling currently in effect.
func (g *Gateway) MaxAttempts() int {
	return g.current.Load().controller.MaxAttempts()
}

// Handler returns the HTTP handler for e.
func (g *Gateway) Handler(e Endpoint) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.serve(e, w, r)
	})
}

// exchange is the per-request state shared by the serving steps.
type exchange struct {
	endpoint Endpoint
	rt       *runtime
	start    time.Time
	logger   *slog.Logger
}

func (g *Gateway) serve(e Endpoint, w http.ResponseWriter, r *http.Request) {
	start := middleware.GetStartTime(r.Context())
	if start.IsZero() {
		start = time.Now()
	}
	x := &exchange{
		endpoint: e,
		rt:       g.current.Load(),
		start:    start,
		logger:   g.logger.With("request_id", middleware.GetRequestID(r.Context()), "endpoint", e.Path),
	}

	if !x.rt.authorized(proxy.ExtractAccessKey(r, e.Protocol)) {
		g.reject(w, x, classify.ReasonAuth, "missing or invalid access key")
		return
	}

	body, err := proxy.ReadBody(r, x.rt.opts.MaxBodyBytes)
	if err != nil {
		g.reject(w, x, classify.ReasonInvalidJSON, err.Error())
		return
	}
	if x.rt.opts.RejectInvalidJSON && e.Method == http.MethodPost && !proxy.IsJSONBody(body) {
		g.reject(w, x, classify.ReasonInvalidJSON, "request body is not valid JSON")
		return
	}
	g.metrics.RecordRequestSize(e.Name, len(body))

	stream := e.AllowStream && proxy.IsStreamRequest(body)
	call := upstream.Call{
		Method:  e.Method,
		Path:    e.Path,
		Header:  upstream.ForwardHeaders(r.Header),
		Body:    body,
		Timeout: x.rt.timeout(e, stream),
		Stream:  stream,
		Auth:    e.Auth,
	}
	attempt := g.upstream.Attempt(call)

	if stream {
		g.serveStream(r.Context(), w, x, attempt)
		return
	}
	g.serveBuffered(r.Context(), w, x, attempt)
}

// authorized compares the presented key in constant time.
func (rt *runtime) authorized(key string) bool {
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), rt.accessKey) == 1
}

// reject answers a request that never reaches the upstream.
func (g *Gateway) reject(w http.ResponseWriter, x *exchange, reason classify.Reason, detail string) {
	f := proxy.Failure{Reason: reason}
	if reason == classify.ReasonInvalidJSON {
		f.Detail = classify.Excerpt(detail)
	}
	if err := proxy.WriteFailure(w, x.endpoint.Protocol, f); err != nil {
		x.logger.Debug("failed to write error response", "error", err)
	}
	g.finish(x, stats.StatusFailed, reason, 0, detail)
}

func (g *Gateway) serveBuffered(ctx context.Context, w http.ResponseWriter, x *exchange, attempt retry.Attempt) {
	out := x.rt.controller.Run(ctx, attempt, g.observer(x))

	var err error
	switch {
	case out.OK():
		err = proxy.WriteUpstreamResponse(w, out.Response)
		g.finish(x, stats.StatusSuccess, classify.ReasonNone, out.Attempt, "")

	case out.Abandoned:
		// Nobody is listening for a response. The reason is client_closed
		// (or timeout for a caller deadline), never an upstream failure.
		g.finish(x, stats.StatusFailed, out.Reason, out.Attempt, out.Detail)

	case out.Passthrough:
		err = proxy.WriteUpstreamResponse(w, out.Response)
		g.finish(x, stats.StatusFailed, out.Reason, out.Attempt, out.Detail)

	default:
		err = proxy.WriteFailure(w, x.endpoint.Protocol, failureOf(out))
		g.finish(x, stats.StatusFailed, out.Reason, out.Attempt, out.Detail)
	}

	if err != nil {
		x.logger.Debug("failed to write response", "error", err)
	}
}

func (g *Gateway) serveStream(ctx context.Context, w http.ResponseWriter, x *exchange, attempt retry.Attempt) {
	protocol := x.endpoint.Protocol
	onError := func(o retry.Outcome) []byte {
		return proxy.ErrorEvent(protocol, failureOf(o))
	}

	res := x.rt.relay.Run(ctx, w, attempt, onError, g.observer(x))
	g.metrics.RecordStreamEvents(x.endpoint.Name, res.Events)

	switch {
	case res.OK():
		g.finish(x, stats.StatusSuccess, classify.ReasonNone, res.Attempt, "")
	case res.Abandoned && res.Committed:
		// The stream was delivered until the caller chose to stop reading.
		g.finish(x, stats.StatusSuccess, classify.ReasonNone, res.Attempt, "")
	default:
		g.finish(x, stats.StatusFailed, res.Reason, res.Attempt, res.Detail)
	}
}

// observer logs and measures every classified attempt.
func (g *Gateway) observer(x *exchange) retry.ObserveFunc {
	return func(n int, result classify.Result, elapsed time.Duration) {
		g.metrics.RecordAttempt(x.endpoint.Name, result.Verdict.String(), string(result.Reason), elapsed)
		if result.Verdict != classify.Success {
			x.logger.Debug("upstream attempt failed",
				"attempt", n,
				"verdict", result.Verdict.String(),
				"reason", result.Reason.String(),
				"detail", result.Detail,
				"elapsed_ms", elapsed.Milliseconds(),
			)
		}
	}
}

// finish records the request. Every request path calls it exactly once.
func (g *Gateway) finish(x *exchange, status string, reason classify.Reason, retries int, detail string) {
	entry := g.recorder.Record(x.endpoint.Path, status, reason, retries, detail)
	duration := time.Since(x.start)
	g.metrics.RecordRequest(x.endpoint.Name, entry.Status, entry.Error, retries, duration)

	level := slog.LevelInfo
	if entry.Status != stats.StatusSuccess && reason != classify.ReasonClientClosed {
		level = slog.LevelWarn
	}
	x.logger.Log(context.Background(), level, "request finished",
		"status", entry.Status,
		"reason", entry.Error,
		"retries", retries,
		"detail", entry.Detail,
		"duration_ms", duration.Milliseconds(),
	)
}

// failureOf converts a failed outcome into the caller-facing failure.
func failureOf(o retry.Outcome) proxy.Failure {
	return proxy.Failure{
		Reason:    o.Reason,
		Detail:    o.Detail,
		Attempts:  o.Attempt + 1,
		Exhausted: o.Exhausted,
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, string, string, int, time.Duration) {}
func (nopMetrics) RecordRequestSize(string, int)                            {}
func (nopMetrics) RecordAttempt(string, string, string, time.Duration)      {}
func (nopMetrics) RecordStreamEvents(string, int)                           {}
