// Package logging builds the relay's *slog.Logger.
//
// Three formats are supported: "json" (default, for log shippers), "text"
// (logfmt) and "console" (colored output via tint for local use). Components
// receive the logger and add their own "component" attribute; request logs
// carry "request_id".
//
// With Redact enabled every handler runs attributes through a Redactor, so a
// bearer token or upstream key that slips into an error message or header
// dump is masked before it is written.
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
package logging
