// Package telemetry groups the relay's observability packages.
//
//   - logging: slog construction from configuration and secret redaction
//   - metrics: Prometheus collectors for requests, attempts and streams
//
// The stats dashboard and the /stats endpoint are served from the in-process
// stats.Recorder and do not depend on this package.
package telemetry
