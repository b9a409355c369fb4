package metrics

import (
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks caller-facing requests.
//
// Metrics:
//   - relay_requests_total: requests by endpoint, status and reason
//   - relay_request_duration_seconds: end-to-end request duration
//   - relay_request_retries: attempt index each request ended on
//   - relay_request_size_bytes: caller body size
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.HistogramVec
	sizeBytes       *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of proxied requests",
			},
			[]string{"endpoint", "status", "reason"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied requests in seconds, including retries",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"endpoint", "status"},
		),

		retries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_retries",
				Help:      "Number of retries before a request finished",
				Buckets:   prometheus.LinearBuckets(0, 1, 10),
			},
			[]string{"endpoint"},
		),

		sizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_size_bytes",
				Help:      "Size of caller request bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to 4MB
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.retries,
		rm.sizeBytes,
	)

	return rm
}

// RecordRequest records one finished request.
func (rm *RequestMetrics) RecordRequest(endpoint, status, reason string, retries int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(endpoint, status, reason).Inc()
	rm.requestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
	rm.retries.WithLabelValues(endpoint).Observe(float64(retries))
}

// RecordSize records the size of a caller body.
func (rm *RequestMetrics) RecordSize(endpoint string, size int) {
	rm.sizeBytes.WithLabelValues(endpoint).Observe(float64(size))
}

