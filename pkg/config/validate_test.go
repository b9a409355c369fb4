package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(MinimalConfig()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(verr.Errors))
	}
	if !strings.Contains(verr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", verr.Error())
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{"missing listen address", func(c *Config) { c.Proxy.ListenAddress = "" }, "proxy.listen_address"},
		{"negative read timeout", func(c *Config) { c.Proxy.ReadTimeout = -time.Second }, "proxy.read_timeout"},
		{"huge header limit", func(c *Config) { c.Proxy.MaxHeaderBytes = 11 * 1024 * 1024 }, "proxy.max_header_bytes"},
		{"zero body limit", func(c *Config) { c.Proxy.MaxBodyBytes = 0 }, "proxy.max_body_bytes"},
		{"tls without cert", func(c *Config) { c.Proxy.TLS.Enabled = true }, "proxy.tls.cert_file"},
		{"tls missing key file", func(c *Config) {
			c.Proxy.TLS.Enabled = true
			c.Proxy.TLS.KeyFile = "/nonexistent/key.pem"
		}, "proxy.tls.key_file"},
		{"old tls version", func(c *Config) { c.Proxy.TLS.MinVersion = "1.0" }, "proxy.tls.min_version"},
		{"missing base url", func(c *Config) { c.Upstream.BaseURL = "" }, "upstream.base_url"},
		{"ftp base url", func(c *Config) { c.Upstream.BaseURL = "ftp://example.com" }, "upstream.base_url"},
		{"base url without host", func(c *Config) { c.Upstream.BaseURL = "https://" }, "upstream.base_url"},
		{"missing upstream key", func(c *Config) { c.Upstream.APIKey = "" }, "upstream.api_key"},
		{"zero stream timeout", func(c *Config) { c.Upstream.StreamTimeout = 0 }, "upstream.stream_timeout"},
		{"missing access key", func(c *Config) { c.Auth.AccessKey = "" }, "auth.access_key"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"negative attempts", func(c *Config) { c.Retry.MaxAttempts = -1 }, "retry.max_attempts"},
		{"unknown backoff", func(c *Config) { c.Retry.Backoff.Policy = "jitter" }, "retry.backoff.policy"},
		{"max below base", func(c *Config) { c.Retry.Backoff.Max = 100 * time.Millisecond }, "retry.backoff.max"},
		{"blank keyword", func(c *Config) { c.Retry.SensitiveKeywords = []string{" "} }, "retry.sensitive_keywords[0]"},
		{"zero capacity", func(c *Config) { c.Stats.Capacity = 0 }, "stats.capacity"},
		{"bad cron", func(c *Config) { c.Stats.ReportSchedule = "every minute" }, "stats.report_schedule"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"relative metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !verr.HasField(tt.errorField) {
				t.Errorf("expected error on %s, got %v", tt.errorField, verr)
			}
		})
	}
}

func TestValidate_AcceptedVariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no backoff", func(c *Config) { c.Retry.Backoff.Policy = "none" }},
		{"fixed backoff ignores max", func(c *Config) {
			c.Retry.Backoff.Policy = "fixed"
			c.Retry.Backoff.Max = 0
		}},
		{"single attempt", func(c *Config) { c.Retry.MaxAttempts = 1 }},
		{"http upstream", func(c *Config) { c.Upstream.BaseURL = "http://127.0.0.1:9000" }},
		{"metrics disabled without path", func(c *Config) {
			c.Telemetry.Metrics.Enabled = false
			c.Telemetry.Metrics.Path = ""
		}},
		{"cron descriptor", func(c *Config) { c.Stats.ReportSchedule = "@hourly" }},
		{"tls 1.3 while disabled", func(c *Config) { c.Proxy.TLS.MinVersion = "1.3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFieldError_Error(t *testing.T) {
	err := FieldError{Field: "retry.max_attempts", Message: "must be at least 1"}
	if got := err.Error(); got != "retry.max_attempts: must be at least 1" {
		t.Errorf("Error() = %q", got)
	}
}
