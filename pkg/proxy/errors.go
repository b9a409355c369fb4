package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/relay/pkg/classify"
	"mercator-hq/relay/pkg/proxy/types"
)

// Failure is a request failure to report to the caller.
type Failure struct {
	Reason classify.Reason
	Detail string

	// Attempts is the number of upstream attempts made.
	Attempts int

	// Exhausted marks failures where every attempt was retryable.
	Exhausted bool
}

// StatusCode maps the failure reason to the caller-facing HTTP status.
func (f Failure) StatusCode() int {
	switch {
	case f.Reason == classify.ReasonAuth:
		return http.StatusUnauthorized
	case f.Reason == classify.ReasonInvalidJSON, f.Reason == classify.ReasonSensitive:
		return http.StatusBadRequest
	case f.Reason == classify.ReasonRateLimit:
		return http.StatusTooManyRequests
	case f.Reason == classify.ReasonTimeout:
		return http.StatusGatewayTimeout
	case f.Reason == classify.ReasonConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human-readable error message.
func (f Failure) Message() string {
	var msg string
	switch f.Reason {
	case classify.ReasonAuth:
		msg = "Invalid or missing access key"
	case classify.ReasonInvalidJSON:
		msg = "Request body is not valid JSON"
	case classify.ReasonSensitive:
		msg = "Request rejected by upstream content policy"
	default:
		msg = fmt.Sprintf("Upstream request failed: %s", f.Reason)
	}
	if f.Exhausted {
		msg = fmt.Sprintf("%s: %d attempts failed, last error: %s", classify.ReasonAllRetriesFailed, f.Attempts, f.Reason)
	}
	if f.Detail != "" && f.Reason != classify.ReasonAuth {
		msg += " (" + f.Detail + ")"
	}
	return msg
}

// ErrorBody builds the protocol-shaped error body for f.
func ErrorBody(p types.Protocol, f Failure) interface{} {
	errType := types.ErrorTypeFor(p, f.StatusCode())
	if p == types.ProtocolAnthropic {
		return types.NewAnthropicErrorResponse(f.Message(), errType)
	}
	return types.NewErrorResponse(f.Message(), errType, string(f.Reason))
}

// ErrorEvent returns the JSON payload of an in-band stream error event.
func ErrorEvent(p types.Protocol, f Failure) []byte {
	data, err := json.Marshal(ErrorBody(p, f))
	if err != nil {
		// Only plain strings are marshaled; this is unreachable in practice.
		return []byte(`{"error":{"message":"internal error","type":"server_error"}}`)
	}
	return data
}

// WriteFailure writes the protocol-shaped error response for f.
func WriteFailure(w http.ResponseWriter, p types.Protocol, f Failure) error {
	return WriteJSONResponse(w, f.StatusCode(), ErrorBody(p, f))
}
