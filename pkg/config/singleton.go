package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// The process-wide configuration. Readers always see a complete, validated
// Config; reloads swap the pointer.
var (
	current  atomic.Pointer[Config]
	initOnce sync.Once
	initErr  error
)

// Initialize loads configuration from path with environment overrides and
// stores it as the global configuration. An empty path configures the relay
// from the environment alone. Only the first call loads anything; later
// calls return the first call's error.
func Initialize(path string) error {
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		current.Store(cfg)
	})
	return initErr
}

// GetConfig returns the global configuration, or nil before a successful
// Initialize.
func GetConfig() *Config {
	return current.Load()
}

// ReloadConfig loads path again and, only if it loads and validates, makes
// the result the global configuration. On error the previous configuration
// stays in effect.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(cfg)
	return cfg, nil
}
