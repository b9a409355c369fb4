package proxy

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/proxy/types"
)

const (
	// DefaultMaxRequestBodySize is the request body limit when none is configured (10MB).
	DefaultMaxRequestBodySize = 10 * 1024 * 1024

	// AuthorizationHeader is the HTTP header for bearer authentication.
	AuthorizationHeader = "Authorization"

	// APIKeyHeader is the Anthropic-style access key header.
	APIKeyHeader = "X-Api-Key"

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// ErrBodyTooLarge is returned by ReadBody when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadBody reads the request body up to maxBytes. The bytes are returned
// unmodified so they can be forwarded without re-encoding.
func ReadBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBodySize
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBytes)
	}
	return body, nil
}

// IsStreamRequest reports whether the body's top-level "stream" flag is true.
// Bodies that do not parse are treated as non-streaming.
func IsStreamRequest(body []byte) bool {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return false
	}
	return gjson.GetBytes(body, "stream").Bool()
}

// IsJSONBody reports whether body is syntactically valid JSON.
func IsJSONBody(body []byte) bool {
	return len(body) > 0 && gjson.ValidBytes(body)
}

// ExtractAccessKey returns the caller's access key for the protocol family.
// OpenAI callers use "Authorization: Bearer <key>"; Anthropic callers may use
// either x-api-key or a bearer token. An empty string means no key was sent.
func ExtractAccessKey(r *http.Request, p types.Protocol) string {
	if p == types.ProtocolAnthropic {
		if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
			return key
		}
	}
	return ExtractBearerToken(r)
}

// ExtractBearerToken extracts the token from "Authorization: Bearer <token>".
// If the header is missing or malformed, an empty string is returned.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}
