package upstream

import (
	"net/http"
	"time"
)

// AuthScheme selects how the upstream credential is presented.
type AuthScheme int

const (
	// AuthBearer sends "Authorization: Bearer <key>" (OpenAI style).
	AuthBearer AuthScheme = iota

	// AuthAPIKey sends "x-api-key: <key>" (Anthropic style).
	AuthAPIKey
)

// Call describes one forwardable upstream request. It is immutable once built
// and is re-sent unchanged on every attempt.
type Call struct {
	// Method is the HTTP method (POST for completions, GET for models).
	Method string

	// Path is appended to the client's base URL, e.g. "/v1/chat/completions".
	Path string

	// Header carries caller headers worth forwarding. It never contains the
	// upstream credential.
	Header http.Header

	// Body is the caller's original request body, forwarded byte for byte.
	Body []byte

	// Timeout bounds a single attempt. For streaming calls it bounds the
	// handshake only (until response headers arrive).
	Timeout time.Duration

	// Stream marks calls whose response is relayed incrementally.
	Stream bool

	// Auth selects the credential header.
	Auth AuthScheme
}

// forwardedHeaders are caller headers copied onto upstream requests. Anything
// else (cookies, caller credentials, hop-by-hop headers) stays behind.
var forwardedHeaders = []string{
	"Content-Type",
	"Accept",
	"Anthropic-Version",
	"Anthropic-Beta",
	"OpenAI-Organization",
	"OpenAI-Beta",
	"User-Agent",
	"X-Request-ID",
}

// ForwardHeaders selects the caller headers that are safe to forward.
func ForwardHeaders(in http.Header) http.Header {
	out := make(http.Header)
	for _, name := range forwardedHeaders {
		if values := in.Values(name); len(values) > 0 {
			out[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return out
}
