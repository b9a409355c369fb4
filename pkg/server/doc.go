// Package server provides the HTTP server that fronts the relay.
//
// # Routes
//
//	POST /v1/chat/completions   gateway, OpenAI family
//	POST /v1/messages           gateway, Anthropic family
//	GET  /v1/models             gateway, model catalog
//	GET  /health                liveness, never contacts the upstream
//	GET  /stats                 counters and recent requests as JSON
//	GET  /                      HTML dashboard
//	GET  /metrics               Prometheus exposition, when enabled
//
// # Middleware
//
// Requests pass through, outermost first: panic recovery, request ID
// assignment, access logging, and CORS.
//
// # Lifecycle
//
// Start blocks until its context is cancelled or Stop is called, then shuts
// down gracefully within proxy.shutdown_timeout. The write timeout defaults to
// zero so long streams are never cut by the server itself. OS signal handling
// belongs to the caller.
//
// # Basic Usage
//
//	srv, err := server.NewServer(server.Config{
//	    Proxy:       &cfg.Proxy,
//	    Gateway:     gw,
//	    Recorder:    recorder,
//	    Metrics:     collector.Handler(),
//	    MetricsPath: cfg.Telemetry.Metrics.Path,
//	    Logger:      logger,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package server
