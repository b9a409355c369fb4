package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                true,
		Namespace:              "test",
		Subsystem:              "relay",
		RequestDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, config.DefaultMetricsNamespace)
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		t.Error("expected default duration buckets")
	}
}

func TestCollector_RecordRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name     string
		endpoint string
		status   string
		reason   string
		retries  int
	}{
		{"success after retries", "chat_completions", "success", "-", 2},
		{"exhausted", "chat_completions", "failed", "http_503", 1},
		{"auth failure", "messages", "failed", "auth_error", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordRequest(tt.endpoint, tt.status, tt.reason, tt.retries, 1200*time.Millisecond)

			count := testutil.ToFloat64(collector.requestMetrics.requestsTotal.WithLabelValues(tt.endpoint, tt.status, tt.reason))
			if count != 1 {
				t.Errorf("requests_total = %v, want 1", count)
			}
		})
	}

	if n := testutil.CollectAndCount(collector.requestMetrics.retries); n != 2 {
		t.Errorf("retries series = %d, want 2", n)
	}
}

func TestCollector_RecordAttempt(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordAttempt("chat_completions", "retryable", "rate_limit", 50*time.Millisecond)
	collector.RecordAttempt("chat_completions", "retryable", "rate_limit", 50*time.Millisecond)
	collector.RecordAttempt("chat_completions", "success", "", 300*time.Millisecond)

	if got := testutil.ToFloat64(collector.upstreamMetrics.attemptsTotal.WithLabelValues("chat_completions", "retryable", "rate_limit")); got != 2 {
		t.Errorf("retryable attempts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.upstreamMetrics.attemptsTotal.WithLabelValues("chat_completions", "success", "-")); got != 1 {
		t.Errorf("successful attempts = %v, want 1", got)
	}
}

func TestCollector_RecordStreamEvents(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordStreamEvents("messages", 3)
	collector.RecordStreamEvents("messages", 0)
	collector.RecordStreamEvents("messages", 4)

	if got := testutil.ToFloat64(collector.upstreamMetrics.streamEvents.WithLabelValues("messages")); got != 7 {
		t.Errorf("stream events = %v, want 7", got)
	}
}

func TestCollector_RecordRequestSize(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRequestSize("chat_completions", 2048)

	if n := testutil.CollectAndCount(collector.requestMetrics.sizeBytes); n != 1 {
		t.Errorf("size series = %d, want 1", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordRequest("chat_completions", "success", "-", 0, time.Second)
	collector.RecordAttempt("chat_completions", "success", "", time.Second)
	collector.RecordStreamEvents("chat_completions", 5)
	collector.RecordRequestSize("chat_completions", 10)

	if n := testutil.CollectAndCount(collector.requestMetrics.requestsTotal); n != 0 {
		t.Errorf("requests_total series = %d, want 0 when disabled", n)
	}
	if n := testutil.CollectAndCount(collector.upstreamMetrics.streamEvents); n != 0 {
		t.Errorf("stream_events_total series = %d, want 0 when disabled", n)
	}
}

func TestCollector_CardinalityOverflow(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordRequest("chat_completions", "failed", "http_500", 0, time.Second)
	collector.RecordRequest("chat_completions", "failed", "http_502", 0, time.Second)

	if got := testutil.ToFloat64(collector.requestMetrics.requestsTotal.WithLabelValues("chat_completions", "failed", overflowReason)); got != 1 {
		t.Errorf("overflow series = %v, want 1", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for _, label := range []string{"label1", "label2", "label3"} {
		if !limiter.Allow(label) {
			t.Errorf("Expected %s to be allowed", label)
		}
	}
	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordRequest("chat_completions", "success", "-", 0, time.Second)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_relay_requests_total") {
		t.Errorf("exposition does not contain requests_total:\n%s", body)
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordRequest("chat_completions", "success", "-", 0, time.Second)
				collector.RecordAttempt("chat_completions", "success", "", time.Second)
			}
		}()
	}
	wg.Wait()

	count := testutil.ToFloat64(collector.requestMetrics.requestsTotal.WithLabelValues("chat_completions", "success", "-"))
	if count != 1000 {
		t.Errorf("Expected 1000 requests, got %f", count)
	}
}
