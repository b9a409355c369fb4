package config

import "time"

// Config is the root configuration structure for the relay.
type Config struct {
	// Proxy contains the caller-facing HTTP server configuration.
	Proxy ProxyConfig `yaml:"proxy"`

	// Upstream describes the single upstream inference endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Auth contains caller authentication settings.
	Auth AuthConfig `yaml:"auth"`

	// Retry contains the retry ceiling, backoff policy and classifier
	// keywords.
	Retry RetryConfig `yaml:"retry"`

	// Stats contains the in-memory request log settings.
	Stats StatsConfig `yaml:"stats"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the caller-facing HTTP server.
type ProxyConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 60s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streams can run for minutes, so zero (no timeout) is the
	// default.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of caller request bodies.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// TLS contains optional TLS termination settings.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS termination settings for the caller-facing server.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept ("1.2" or "1.3").
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedHeaders is a list of headers callers may send.
	// Default: ["Authorization", "Content-Type", "X-Api-Key", "Anthropic-Version", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// UpstreamConfig describes the upstream inference endpoint.
type UpstreamConfig struct {
	// BaseURL is the upstream root, without the /v1 suffix.
	// Example: "https://api.example.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the upstream credential. It is injected on every attempt
	// and never logged.
	APIKey string `yaml:"api_key"`

	// AnthropicVersion is sent on /v1/messages calls when the caller does
	// not provide one.
	// Default: "2023-06-01"
	AnthropicVersion string `yaml:"anthropic_version"`

	// RequestTimeout bounds one non-streaming attempt.
	// Default: 300s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// StreamTimeout bounds one streaming attempt up to the response
	// headers. The stream itself is not bounded.
	// Default: 300s
	StreamTimeout time.Duration `yaml:"stream_timeout"`

	// ModelsTimeout bounds one /v1/models attempt.
	// Default: 20s
	ModelsTimeout time.Duration `yaml:"models_timeout"`

	// MaxIdleConns is the maximum number of idle upstream connections.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum number of idle connections kept
	// to the upstream host.
	// Default: 100
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle upstream connection is kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// AuthConfig contains caller authentication settings.
type AuthConfig struct {
	// AccessKey is the private key callers must present. Required.
	AccessKey string `yaml:"access_key"`

	// RejectInvalidJSON rejects non-JSON POST bodies with 400 before any
	// upstream call. When false, such bodies are forwarded as-is.
	// Default: false
	RejectInvalidJSON bool `yaml:"reject_invalid_json"`
}

// RetryConfig contains retry settings.
type RetryConfig struct {
	// MaxAttempts is the total number of upstream attempts per request,
	// including the first. Must be at least 1.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// Backoff is the delay policy between attempts.
	Backoff BackoffConfig `yaml:"backoff"`

	// RateLimitKeywords mark an upstream error as rate limiting (retried).
	// Default: ["rate limit", "rate_limit"]
	RateLimitKeywords []string `yaml:"rate_limit_keywords"`

	// SensitiveKeywords mark an upstream error as a content rejection
	// (never retried).
	// Default: ["sensitive"]
	SensitiveKeywords []string `yaml:"sensitive_keywords"`
}

// BackoffConfig contains the backoff policy.
type BackoffConfig struct {
	// Policy is one of "none", "fixed" or "exponential".
	// Default: "exponential"
	Policy string `yaml:"policy"`

	// Base is the fixed delay, or the first exponential delay.
	// Default: 1s
	Base time.Duration `yaml:"base"`

	// Max caps exponential delays.
	// Default: 8s
	Max time.Duration `yaml:"max"`
}

// StatsConfig contains request log settings.
type StatsConfig struct {
	// Capacity is the number of recent log entries kept.
	// Default: 50
	Capacity int `yaml:"capacity"`

	// ReportSchedule is a cron expression for the periodic summary log
	// line. Empty disables the report.
	// Example: "*/15 * * * *"
	ReportSchedule string `yaml:"report_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks bearer tokens, API keys and credential-named
	// attributes in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "relay"
	Namespace string `yaml:"namespace"`

	// Subsystem is the optional metric subsystem name.
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request and
	// attempt durations, in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
