package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name   string
		input  string
		secret string
	}{
		{"bearer token", "Authorization: Bearer abc.def-ghi", "abc.def-ghi"},
		{"openai style key", "invalid key sk-proj1234567890", "sk-proj1234567890"},
		{"api key pair", "api_key=abcdef123", "abcdef123"},
		{"x-api-key header", "x-api-key: zyx987", "zyx987"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RedactString(tt.input)
			if strings.Contains(got, tt.secret) {
				t.Errorf("RedactString(%q) = %q, secret still present", tt.input, got)
			}
		})
	}
}

func TestRedactor_LeavesOrdinaryText(t *testing.T) {
	r := NewRedactor()
	in := "rate limit exceeded, retry after 2s"
	if got := r.RedactString(in); got != in {
		t.Errorf("RedactString(%q) = %q", in, got)
	}
}

func TestRedactor_ReplaceAttr(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"sensitive key long", slog.String("access_key", "abcdefghijkl"), "abcd***"},
		{"sensitive key short", slog.String("X-Api-Key", "short"), "***"},
		{"ordinary key", slog.String("endpoint", "/v1/models"), "/v1/models"},
		{"error value", slog.Any("error", errors.New("dial failed for Bearer tok123")), "dial failed for Bearer ***"},
		{"int untouched", slog.Int("retries", 2), "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReplaceAttr(nil, tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("ReplaceAttr(%v) = %q, want %q", tt.attr, got.Value.String(), tt.want)
			}
		})
	}
}
