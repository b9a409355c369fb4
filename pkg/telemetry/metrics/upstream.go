package metrics

import (
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UpstreamMetrics tracks individual upstream attempts.
//
// Metrics:
//   - relay_upstream_attempts_total: attempts by endpoint, verdict and reason
//   - relay_upstream_attempt_duration_seconds: time until an attempt was classified
//   - relay_stream_events_total: events relayed to streaming callers
type UpstreamMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	streamEvents    *prometheus.CounterVec
}

// NewUpstreamMetrics creates upstream metrics registered with registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	factory := promauto.With(registry)
	return &UpstreamMetrics{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_attempts_total",
				Help:      "Total number of upstream attempts by verdict",
			},
			[]string{"endpoint", "verdict", "reason"},
		),

		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_attempt_duration_seconds",
				Help:      "Duration of single upstream attempts in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"endpoint", "verdict"},
		),

		streamEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_events_total",
				Help:      "Total number of events relayed to streaming callers",
			},
			[]string{"endpoint"},
		),
	}
}

// RecordAttempt records one classified attempt.
func (um *UpstreamMetrics) RecordAttempt(endpoint, verdict, reason string, duration time.Duration) {
	um.attemptsTotal.WithLabelValues(endpoint, verdict, reason).Inc()
	um.attemptDuration.WithLabelValues(endpoint, verdict).Observe(duration.Seconds())
}

// RecordStreamEvents adds n relayed events.
func (um *UpstreamMetrics) RecordStreamEvents(endpoint string, n int) {
	if n <= 0 {
		return
	}
	um.streamEvents.WithLabelValues(endpoint).Add(float64(n))
}
