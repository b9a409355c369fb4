package classify

import (
	"fmt"
	"strings"
	"unicode"
)

// Reason is a closed error kind reported for failed attempts and requests.
type Reason string

// Fixed reasons. Status-dependent and error-dependent reasons are built with
// HTTPStatus and Exception.
const (
	// ReasonNone is used for successful attempts.
	ReasonNone Reason = ""

	// ReasonTimeout indicates the upstream did not answer within the per-attempt timeout.
	ReasonTimeout Reason = "timeout"

	// ReasonConnection indicates the upstream could not be reached.
	ReasonConnection Reason = "connection_error"

	// ReasonRateLimit indicates the upstream throttled the request.
	ReasonRateLimit Reason = "rate_limit"

	// ReasonSensitive indicates the upstream rejected the content.
	ReasonSensitive Reason = "sensitive_words"

	// ReasonParse indicates a successful upstream response could not be read.
	ReasonParse Reason = "parse_error"

	// ReasonAuth indicates the caller presented a missing or wrong access key.
	ReasonAuth Reason = "auth_error"

	// ReasonInvalidJSON indicates the caller's request body was rejected before forwarding.
	ReasonInvalidJSON Reason = "invalid_json"

	// ReasonAllRetriesFailed is the caller-facing summary for exhausted retries.
	ReasonAllRetriesFailed Reason = "all_retries_failed"

	// ReasonClientClosed indicates the caller went away before a response was
	// delivered. It is not an upstream failure.
	ReasonClientClosed Reason = "client_closed"
)

const (
	httpPrefix      = "http_"
	exceptionPrefix = "exception_"
)

// HTTPStatus returns the http_<status> reason for a non-200 upstream status.
func HTTPStatus(code int) Reason {
	return Reason(fmt.Sprintf("%s%d", httpPrefix, code))
}

// Exception returns the exception_<kind> reason for an unexpected transport
// error. The kind is normalized to lower snake case.
func Exception(kind string) Reason {
	return Reason(exceptionPrefix + snake(kind))
}

// IsHTTPStatus reports whether r is an http_<status> reason.
func (r Reason) IsHTTPStatus() bool {
	return strings.HasPrefix(string(r), httpPrefix)
}

// IsException reports whether r is an exception_<kind> reason.
func (r Reason) IsException() bool {
	return strings.HasPrefix(string(r), exceptionPrefix)
}

// String returns the reason text, or "-" when empty.
func (r Reason) String() string {
	if r == ReasonNone {
		return "-"
	}
	return string(r)
}

func snake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = true
		default:
			if b.Len() > 0 && prevLower {
				b.WriteByte('_')
			}
			prevLower = false
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}
