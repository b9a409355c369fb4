package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func resetGlobal() {
	current.Store(nil)
	initOnce = sync.Once{}
	initErr = nil
}

func TestInitialize(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	if err := Initialize(writeConfig(t, minimalYAML)); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Auth.AccessKey != "access-key" {
		t.Errorf("access key = %q", cfg.Auth.AccessKey)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	first := writeConfig(t, minimalYAML)
	second := writeConfig(t, minimalYAML+"retry:\n  max_attempts: 9\n")

	if err := Initialize(first); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(second); err != nil {
		t.Fatal(err)
	}

	if got := GetConfig().Retry.MaxAttempts; got != DefaultMaxAttempts {
		t.Errorf("max attempts = %d, second Initialize must be ignored", got)
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, minimalYAML)
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(minimalYAML+"retry:\n  max_attempts: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if cfg != GetConfig() {
		t.Error("reloaded configuration was not stored")
	}
	if got := GetConfig().Retry.MaxAttempts; got != 5 {
		t.Errorf("max attempts = %d, want 5", got)
	}
}

func TestReloadConfig_InvalidKeepsPrevious(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, minimalYAML)
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	previous := GetConfig()

	if err := os.WriteFile(path, []byte(minimalYAML+"retry:\n  max_attempts: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload to fail")
	}
	if GetConfig() != previous {
		t.Error("failed reload replaced the configuration")
	}
}

func TestInitialize_ErrorIsSticky(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if err := Initialize(missing); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := Initialize(writeConfig(t, minimalYAML)); err == nil {
		t.Error("a later Initialize must report the first failure")
	}
	if GetConfig() != nil {
		t.Error("failed Initialize stored a configuration")
	}
}
