package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "0.0.0.0:8080"
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = time.Duration(0)
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576  // 1MB
	DefaultMaxBodyBytes    = 10485760 // 10MB

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// TLS defaults
	DefaultTLSMinVersion = "1.2"

	// Upstream defaults
	DefaultAnthropicVersion    = "2023-06-01"
	DefaultRequestTimeout      = 300 * time.Second
	DefaultStreamTimeout       = 300 * time.Second
	DefaultModelsTimeout       = 20 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 100
	DefaultIdleConnTimeout     = 90 * time.Second

	// Retry defaults
	DefaultMaxAttempts   = 3
	DefaultBackoffPolicy = "exponential"
	DefaultBackoffBase   = time.Second
	DefaultBackoffMax    = 8 * time.Second

	// Stats defaults
	DefaultStatsCapacity = 50

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultRedactSecrets    = true
	DefaultMetricsEnabled   = true
	DefaultPrometheusPath   = "/metrics"
	DefaultMetricsNamespace = "relay"
)

// Default returns a Config with every field set to its default. Files are
// decoded on top of it, so boolean defaults survive sections that omit them.
func Default() *Config {
	cfg := &Config{
		Proxy: ProxyConfig{
			WriteTimeout: DefaultWriteTimeout,
			CORS:         CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Retry: RetryConfig{MaxAttempts: DefaultMaxAttempts},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: DefaultRedactSecrets},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for fields that have zero values. Booleans are
// left alone; Default covers them. ApplyDefaults is idempotent.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxBodyBytes == 0 {
		cfg.Proxy.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(&cfg.Proxy.CORS)
	if cfg.Proxy.TLS.MinVersion == "" {
		cfg.Proxy.TLS.MinVersion = DefaultTLSMinVersion
	}

	// Upstream defaults
	if cfg.Upstream.AnthropicVersion == "" {
		cfg.Upstream.AnthropicVersion = DefaultAnthropicVersion
	}
	if cfg.Upstream.RequestTimeout == 0 {
		cfg.Upstream.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Upstream.StreamTimeout == 0 {
		cfg.Upstream.StreamTimeout = DefaultStreamTimeout
	}
	if cfg.Upstream.ModelsTimeout == 0 {
		cfg.Upstream.ModelsTimeout = DefaultModelsTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Retry defaults. A zero max_attempts is left for validation to reject.
	if cfg.Retry.Backoff.Policy == "" {
		cfg.Retry.Backoff.Policy = DefaultBackoffPolicy
	}
	if cfg.Retry.Backoff.Base == 0 {
		cfg.Retry.Backoff.Base = DefaultBackoffBase
	}
	if cfg.Retry.Backoff.Max == 0 {
		cfg.Retry.Backoff.Max = DefaultBackoffMax
	}
	if len(cfg.Retry.RateLimitKeywords) == 0 {
		cfg.Retry.RateLimitKeywords = []string{"rate limit", "rate_limit"}
	}
	if len(cfg.Retry.SensitiveKeywords) == 0 {
		cfg.Retry.SensitiveKeywords = []string{"sensitive"}
	}

	// Stats defaults
	if cfg.Stats.Capacity == 0 {
		cfg.Stats.Capacity = DefaultStatsCapacity
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Api-Key", "Anthropic-Version", "X-Request-ID"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
