package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/relay/pkg/cli"
)

// clearLegacyEnv keeps the host environment out of configuration tests.
func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PROXY_URL", "API_KEY", "MY_ACCESS_KEY", "MAX_RETRIES"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateConfig_Valid(t *testing.T) {
	clearLegacyEnv(t)
	path := writeConfig(t, `
upstream:
  base_url: "https://api.example.com"
  api_key: "sk-upstream-secret"
auth:
  access_key: "caller-secret"
retry:
  max_attempts: 4
`)

	var out bytes.Buffer
	if err := validateConfig(&out, path); err != nil {
		t.Fatalf("validateConfig() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"✓ Configuration valid", "https://api.example.com", "Max attempts:", "4"} {
		if !strings.Contains(got, want) {
			t.Errorf("output is missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "sk-upstream-secret") || strings.Contains(got, "caller-secret") {
		t.Error("validate must not print secrets")
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	clearLegacyEnv(t)
	path := writeConfig(t, `
upstream:
  base_url: "ftp://nowhere"
retry:
  max_attempts: 0
`)

	var out bytes.Buffer
	err := validateConfig(&out, path)
	if err == nil {
		t.Fatal("validateConfig() accepted an invalid configuration")
	}
	if cli.ExitCode(err) != cli.ExitConfigError {
		t.Errorf("ExitCode = %d, want %d", cli.ExitCode(err), cli.ExitConfigError)
	}
	for _, want := range []string{"upstream.base_url", "auth.access_key", "retry.max_attempts"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output is missing %q:\n%s", want, out.String())
		}
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	err := validateConfig(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.yaml"))
	if cli.ExitCode(err) != cli.ExitConfigError {
		t.Errorf("err = %v, want a config error", err)
	}
}
