package gateway

import (
	"net/http"

	"mercator-hq/relay/pkg/proxy/types"
	"mercator-hq/relay/pkg/upstream"
)

// Endpoint describes one forwarded route. The caller-facing path and the
// upstream path are the same.
type Endpoint struct {
	// Name is the short label used in metrics.
	Name string

	Method string
	Path   string

	// Protocol decides caller authentication and error body shape.
	Protocol types.Protocol

	// Auth selects how the upstream credential is sent.
	Auth upstream.AuthScheme

	// AllowStream enables the streaming relay when the body asks for it.
	AllowStream bool

	// Catalog marks short metadata lookups bounded by the models timeout.
	Catalog bool
}

// Forwarded endpoints.
var (
	ChatCompletions = Endpoint{
		Name:        "chat_completions",
		Method:      http.MethodPost,
		Path:        "/v1/chat/completions",
		Protocol:    types.ProtocolOpenAI,
		Auth:        upstream.AuthBearer,
		AllowStream: true,
	}

	Messages = Endpoint{
		Name:        "messages",
		Method:      http.MethodPost,
		Path:        "/v1/messages",
		Protocol:    types.ProtocolAnthropic,
		Auth:        upstream.AuthAPIKey,
		AllowStream: true,
	}

	Models = Endpoint{
		Name:     "models",
		Method:   http.MethodGet,
		Path:     "/v1/models",
		Protocol: types.ProtocolOpenAI,
		Auth:     upstream.AuthBearer,
		Catalog:  true,
	}
)

// Endpoints returns every forwarded endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{ChatCompletions, Messages, Models}
}

// Pattern returns the ServeMux pattern for e, e.g. "POST /v1/messages".
func (e Endpoint) Pattern() string {
	return e.Method + " " + e.Path
}
