package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	underlying := errors.New("upstream.base_url is required")

	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{"with path", NewConfigError("relay.yaml", underlying), "config error in relay.yaml: upstream.base_url is required"},
		{"env only", NewConfigError("", underlying), "config error: upstream.base_url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, underlying) {
				t.Error("ConfigError should unwrap to the underlying error")
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewCommandError("stats", underlying)

	expected := "command stats failed: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlying) {
		t.Error("CommandError should unwrap to the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	cfgErr := NewConfigError("relay.yaml", errors.New("bad"))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"command", NewCommandError("run", errors.New("boom")), ExitFailure},
		{"config", cfgErr, ExitConfigError},
		{"wrapped config", NewCommandError("run", cfgErr), ExitConfigError},
		{"fmt wrapped config", fmt.Errorf("starting: %w", cfgErr), ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
