package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Default label budget shared by every metric family of a collector.
const defaultMaxCardinality = 10000

// overflowReason replaces a failure reason once the label budget is spent.
const overflowReason = "other"

// Collector owns the relay's Prometheus metrics and the registry they are
// registered with.
//
// All Record methods are no-ops when metrics are disabled, so callers never
// need to check the configuration themselves.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector with the specified configuration and
// Prometheus registry. If registry is nil a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "relay"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Upstream LLM latencies range from sub-second to several minutes.
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(defaultMaxCardinality),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)

	return c
}

// RecordRequest records a finished caller request.
//
// Parameters:
//   - endpoint: endpoint name (e.g. "chat_completions", "messages")
//   - status: "success" or "failed"
//   - reason: failure reason, "-" on success
//   - retries: attempt index the request ended on
//   - duration: total time spent serving the request
func (c *Collector) RecordRequest(endpoint, status, reason string, retries int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	labelSet := fmt.Sprintf("request:%s:%s:%s", endpoint, status, reason)
	if !c.cardinalityLimiter.Allow(labelSet) {
		reason = overflowReason
	}

	c.requestMetrics.RecordRequest(endpoint, status, reason, retries, duration)
}

// RecordRequestSize records the size of a caller body forwarded upstream.
func (c *Collector) RecordRequestSize(endpoint string, size int) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordSize(endpoint, size)
}

// RecordAttempt records a single upstream attempt and its verdict.
//
// Parameters:
//   - endpoint: endpoint name
//   - verdict: "success", "retryable" or "terminal"
//   - reason: classified failure reason, empty on success
//   - duration: time until the attempt was classified
func (c *Collector) RecordAttempt(endpoint, verdict, reason string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if reason == "" {
		reason = "-"
	}
	labelSet := fmt.Sprintf("attempt:%s:%s:%s", endpoint, verdict, reason)
	if !c.cardinalityLimiter.Allow(labelSet) {
		reason = overflowReason
	}

	c.upstreamMetrics.RecordAttempt(endpoint, verdict, reason, duration)
}

// RecordStreamEvents records the number of events relayed on one stream.
func (c *Collector) RecordStreamEvents(endpoint string, n int) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordStreamEvents(endpoint, n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label combinations a
// collector will create.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter that admits at most maxCardinality
// label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the
// limit. Known label sets are always allowed.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the number of label sets admitted so far.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
