package config

import (
	"os"
	"path/filepath"
	"testing"
)

// MinimalConfig returns a valid configuration for tests.
func MinimalConfig() *Config {
	cfg := Default()
	cfg.Upstream.BaseURL = "https://api.example.com"
	cfg.Upstream.APIKey = "upstream-key"
	cfg.Auth.AccessKey = "access-key"
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const minimalYAML = `
upstream:
  base_url: "https://api.example.com"
  api_key: "upstream-key"
auth:
  access_key: "access-key"
`
