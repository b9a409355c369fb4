// Package metrics exposes the relay's Prometheus metrics.
//
// # Metrics
//
//	relay_requests_total{endpoint,status,reason}            counter
//	relay_request_duration_seconds{endpoint,status}         histogram
//	relay_request_retries{endpoint}                         histogram
//	relay_request_size_bytes{endpoint}                      histogram
//	relay_upstream_attempts_total{endpoint,verdict,reason}  counter
//	relay_upstream_attempt_duration_seconds{endpoint,verdict} histogram
//	relay_stream_events_total{endpoint}                     counter
//
// Requests are recorded once per caller request, attempts once per upstream
// call. Failure reasons such as http_<status> are open-ended, so a
// CardinalityLimiter folds new label sets into reason="other" once its budget
// is spent.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//	collector.RecordRequest("chat_completions", "success", "-", 2, elapsed)
package metrics
