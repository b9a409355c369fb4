package types

import "net/http"

// Protocol identifies the wire family of an endpoint. It decides how the
// caller authenticates and how error bodies are shaped.
type Protocol int

const (
	// ProtocolOpenAI covers /v1/chat/completions and /v1/models.
	ProtocolOpenAI Protocol = iota

	// ProtocolAnthropic covers /v1/messages.
	ProtocolAnthropic
)

// String returns the protocol name used in logs.
func (p Protocol) String() string {
	if p == ProtocolAnthropic {
		return "anthropic"
	}
	return "openai"
}

// ErrorResponse is an OpenAI-compatible error body.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error, e.g. "rate_limit_exceeded".
	Type string `json:"type"`

	// Code is the machine-readable failure reason, e.g. "timeout".
	Code string `json:"code,omitempty"`
}

// AnthropicErrorResponse is an Anthropic-compatible error body:
//
//	{"type":"error","error":{"type":"rate_limit_error","message":"..."}}
type AnthropicErrorResponse struct {
	Type  string               `json:"type"`
	Error AnthropicErrorDetail `json:"error"`
}

// AnthropicErrorDetail contains Anthropic-style error details.
type AnthropicErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// OpenAI error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeAuthentication     = "authentication_error"
	ErrorTypeRateLimitExceeded  = "rate_limit_exceeded"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
	ErrorTypeGatewayTimeout     = "gateway_timeout"
)

// Anthropic error types.
const (
	AnthropicTypeInvalidRequest = "invalid_request_error"
	AnthropicTypeAuthentication = "authentication_error"
	AnthropicTypeRateLimit      = "rate_limit_error"
	AnthropicTypeAPI            = "api_error"
	AnthropicTypeOverloaded     = "overloaded_error"
	AnthropicTypeTimeout        = "timeout_error"
)

// NewErrorResponse creates an OpenAI error body.
func NewErrorResponse(message, errorType, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Code:    code,
		},
	}
}

// NewAnthropicErrorResponse creates an Anthropic error body.
func NewAnthropicErrorResponse(message, errorType string) *AnthropicErrorResponse {
	return &AnthropicErrorResponse{
		Type: "error",
		Error: AnthropicErrorDetail{
			Type:    errorType,
			Message: message,
		},
	}
}

// ErrorTypeFor returns the protocol's error type for an HTTP status.
func ErrorTypeFor(p Protocol, status int) string {
	if p == ProtocolAnthropic {
		switch status {
		case http.StatusBadRequest:
			return AnthropicTypeInvalidRequest
		case http.StatusUnauthorized:
			return AnthropicTypeAuthentication
		case http.StatusTooManyRequests:
			return AnthropicTypeRateLimit
		case http.StatusServiceUnavailable:
			return AnthropicTypeOverloaded
		case http.StatusGatewayTimeout:
			return AnthropicTypeTimeout
		default:
			return AnthropicTypeAPI
		}
	}

	switch status {
	case http.StatusBadRequest:
		return ErrorTypeInvalidRequest
	case http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimitExceeded
	case http.StatusServiceUnavailable:
		return ErrorTypeServiceUnavailable
	case http.StatusGatewayTimeout:
		return ErrorTypeGatewayTimeout
	default:
		return ErrorTypeServerError
	}
}
