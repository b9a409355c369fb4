// Package config provides configuration management for the relay.
//
// Configuration is read from an optional YAML file, completed with defaults,
// overridden from the environment and validated. All validation errors are
// collected into a single ValidationError.
//
// # Loading
//
//	cfg, err := config.LoadConfig("relay.yaml")                  // file only
//	cfg, err := config.LoadConfigWithEnvOverrides("relay.yaml")  // file + env
//	cfg, err := config.LoadConfigWithEnvOverrides("")            // env only
//
// # Environment Variables
//
// Every field can be overridden with RELAY_SECTION_FIELD, for example
// RELAY_UPSTREAM_BASE_URL or RELAY_RETRY_MAX_ATTEMPTS. List fields take
// comma-separated values. The plain variables PROXY_URL, API_KEY,
// MY_ACCESS_KEY and MAX_RETRIES are also honoured and lose to their RELAY_*
// equivalents.
//
// # Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. PROXY_URL, API_KEY, MY_ACCESS_KEY, MAX_RETRIES
//  4. RELAY_* variables
//
// # Hot Reload
//
// Initialize stores the configuration globally. A Watcher reloads it when
// the file changes and hands the new value to a callback; the gateway uses
// this to swap its access key, retry policy, keywords and timeouts without a
// restart. Listener and upstream address changes need a restart.
//
// # Example File
//
//	proxy:
//	  listen_address: "0.0.0.0:8080"
//	upstream:
//	  base_url: "https://api.example.com"
//	  api_key: "sk-upstream"
//	auth:
//	  access_key: "change-me"
//	retry:
//	  max_attempts: 3
//	  backoff:
//	    policy: exponential
//	    base: 1s
//	    max: 8s
//	stats:
//	  report_schedule: "*/15 * * * *"
//	telemetry:
//	  logging:
//	    level: info
//	    format: console
package config
