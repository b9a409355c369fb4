package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. RELAY_UPSTREAM_BASE_URL.
const EnvPrefix = "RELAY_"

// Legacy environment variables, honoured for deployments that configure the
// relay purely through the environment. RELAY_* variables take precedence.
const (
	LegacyEnvUpstreamURL = "PROXY_URL"
	LegacyEnvAPIKey      = "API_KEY"
	LegacyEnvAccessKey   = "MY_ACCESS_KEY"
	LegacyEnvMaxRetries  = "MAX_RETRIES"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// An empty path yields the defaults. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := decode(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides before validating. Environment variables
// follow the naming convention RELAY_SECTION_FIELD (e.g.,
// RELAY_PROXY_LISTEN_ADDRESS) and always take precedence over the file.
//
// The loading sequence is:
// 1. Start from Default()
// 2. Decode the YAML file on top, if path is not empty
// 3. Fill remaining zero values with defaults
// 4. Apply legacy, then RELAY_* environment overrides
// 5. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := decode(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// decode reads path on top of the defaults.
func decode(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	applyLegacyEnv(cfg)

	// Proxy overrides
	envString("PROXY_LISTEN_ADDRESS", &cfg.Proxy.ListenAddress)
	envDuration("PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	envDuration("PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	envDuration("PROXY_IDLE_TIMEOUT", &cfg.Proxy.IdleTimeout)
	envDuration("PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)
	envInt("PROXY_MAX_HEADER_BYTES", &cfg.Proxy.MaxHeaderBytes)
	if val := os.Getenv(EnvPrefix + "PROXY_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Proxy.MaxBodyBytes = i
		}
	}
	envBool("PROXY_CORS_ENABLED", &cfg.Proxy.CORS.Enabled)
	envList("PROXY_CORS_ALLOWED_ORIGINS", &cfg.Proxy.CORS.AllowedOrigins)
	envBool("PROXY_TLS_ENABLED", &cfg.Proxy.TLS.Enabled)
	envString("PROXY_TLS_CERT_FILE", &cfg.Proxy.TLS.CertFile)
	envString("PROXY_TLS_KEY_FILE", &cfg.Proxy.TLS.KeyFile)
	envString("PROXY_TLS_MIN_VERSION", &cfg.Proxy.TLS.MinVersion)

	// Upstream overrides
	envString("UPSTREAM_BASE_URL", &cfg.Upstream.BaseURL)
	envString("UPSTREAM_API_KEY", &cfg.Upstream.APIKey)
	envString("UPSTREAM_ANTHROPIC_VERSION", &cfg.Upstream.AnthropicVersion)
	envDuration("UPSTREAM_REQUEST_TIMEOUT", &cfg.Upstream.RequestTimeout)
	envDuration("UPSTREAM_STREAM_TIMEOUT", &cfg.Upstream.StreamTimeout)
	envDuration("UPSTREAM_MODELS_TIMEOUT", &cfg.Upstream.ModelsTimeout)

	// Auth overrides
	envString("AUTH_ACCESS_KEY", &cfg.Auth.AccessKey)
	envBool("AUTH_REJECT_INVALID_JSON", &cfg.Auth.RejectInvalidJSON)

	// Retry overrides
	envInt("RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	envString("RETRY_BACKOFF_POLICY", &cfg.Retry.Backoff.Policy)
	envDuration("RETRY_BACKOFF_BASE", &cfg.Retry.Backoff.Base)
	envDuration("RETRY_BACKOFF_MAX", &cfg.Retry.Backoff.Max)
	envList("RETRY_RATE_LIMIT_KEYWORDS", &cfg.Retry.RateLimitKeywords)
	envList("RETRY_SENSITIVE_KEYWORDS", &cfg.Retry.SensitiveKeywords)

	// Stats overrides
	envInt("STATS_CAPACITY", &cfg.Stats.Capacity)
	envString("STATS_REPORT_SCHEDULE", &cfg.Stats.ReportSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

// applyLegacyEnv maps the plain environment variables onto the config.
func applyLegacyEnv(cfg *Config) {
	if val := os.Getenv(LegacyEnvUpstreamURL); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv(LegacyEnvAPIKey); val != "" {
		cfg.Upstream.APIKey = val
	}
	if val := os.Getenv(LegacyEnvAccessKey); val != "" {
		cfg.Auth.AccessKey = val
	}
	if val := os.Getenv(LegacyEnvMaxRetries); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retry.MaxAttempts = i
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// envList reads a comma-separated list.
func envList(key string, dst *[]string) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
