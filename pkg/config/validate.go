package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "upstream.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether field has at least one error.
func (e ValidationError) HasField(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any rule fails. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateStats(&cfg.Stats)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProxy validates proxy configuration.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Message: "read timeout must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Message: "write timeout must not be negative"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.idle_timeout", Message: "idle timeout must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.shutdown_timeout", Message: "shutdown timeout must not be negative"})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	errs = append(errs, validateTLS(&cfg.TLS)...)

	return errs
}

// validateTLS validates TLS termination settings.
func validateTLS(cfg *TLSConfig) []FieldError {
	var errs []FieldError

	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{
			Field:   "proxy.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q: must be 1.2 or 1.3", cfg.MinVersion),
		})
	}
	if !cfg.Enabled {
		return errs
	}

	files := []struct{ field, path string }{
		{"proxy.tls.cert_file", cfg.CertFile},
		{"proxy.tls.key_file", cfg.KeyFile},
	}
	for _, f := range files {
		if f.path == "" {
			errs = append(errs, FieldError{Field: f.field, Message: "required when TLS is enabled"})
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			errs = append(errs, FieldError{Field: f.field, Message: fmt.Sprintf("cannot read file: %v", err)})
		}
	}

	return errs
}

// validateUpstream validates the upstream endpoint.
func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: "base URL is required (or set PROXY_URL)",
		})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: fmt.Sprintf("unsupported scheme %q: must be http or https", u.Scheme),
		})
	} else if u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: "base URL must include a host",
		})
	}

	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.api_key",
			Message: "upstream API key is required (or set API_KEY)",
		})
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{Field: "upstream.request_timeout", Message: "request timeout must be positive"})
	}
	if cfg.StreamTimeout <= 0 {
		errs = append(errs, FieldError{Field: "upstream.stream_timeout", Message: "stream timeout must be positive"})
	}
	if cfg.ModelsTimeout <= 0 {
		errs = append(errs, FieldError{Field: "upstream.models_timeout", Message: "models timeout must be positive"})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "upstream.max_idle_conns", Message: "max idle connections must be non-negative"})
	}
	if cfg.MaxIdleConnsPerHost < 0 {
		errs = append(errs, FieldError{Field: "upstream.max_idle_conns_per_host", Message: "max idle connections per host must be non-negative"})
	}

	return errs
}

// validateAuth validates caller authentication.
func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if cfg.AccessKey == "" {
		errs = append(errs, FieldError{
			Field:   "auth.access_key",
			Message: "access key is required (or set MY_ACCESS_KEY)",
		})
	}

	return errs
}

// validateRetry validates retry settings.
func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts <= 0 {
		errs = append(errs, FieldError{
			Field:   "retry.max_attempts",
			Message: fmt.Sprintf("max attempts must be at least 1, got %d", cfg.MaxAttempts),
		})
	}

	validPolicies := map[string]bool{"none": true, "fixed": true, "exponential": true}
	if !validPolicies[cfg.Backoff.Policy] {
		errs = append(errs, FieldError{
			Field:   "retry.backoff.policy",
			Message: fmt.Sprintf("invalid backoff policy %q: must be 'none', 'fixed', or 'exponential'", cfg.Backoff.Policy),
		})
	}
	if cfg.Backoff.Base < 0 {
		errs = append(errs, FieldError{Field: "retry.backoff.base", Message: "backoff base must not be negative"})
	}
	if cfg.Backoff.Policy == "exponential" && cfg.Backoff.Max < cfg.Backoff.Base {
		errs = append(errs, FieldError{
			Field:   "retry.backoff.max",
			Message: fmt.Sprintf("backoff max %s is below base %s", cfg.Backoff.Max, cfg.Backoff.Base),
		})
	}

	for i, kw := range cfg.RateLimitKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("retry.rate_limit_keywords[%d]", i),
				Message: "keyword must not be blank",
			})
		}
	}
	for i, kw := range cfg.SensitiveKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("retry.sensitive_keywords[%d]", i),
				Message: "keyword must not be blank",
			})
		}
	}

	return errs
}

// validateStats validates request log settings.
func validateStats(cfg *StatsConfig) []FieldError {
	var errs []FieldError

	if cfg.Capacity <= 0 {
		errs = append(errs, FieldError{Field: "stats.capacity", Message: "capacity must be positive"})
	}
	if cfg.ReportSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReportSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "stats.report_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
	}

	return errs
}
