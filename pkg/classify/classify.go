package classify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// MaxDetailLength is the maximum number of characters kept in a Result detail.
const MaxDetailLength = 200

// Verdict is the control-flow decision for a single attempt.
type Verdict int

const (
	// Success means the upstream answered with 200.
	Success Verdict = iota

	// Retryable means another attempt may produce a different answer.
	Retryable

	// Terminal means resending the same request cannot help.
	Terminal
)

// String returns the lowercase verdict name used in logs and metric labels.
func (v Verdict) String() string {
	switch v {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the upstream Content-Type, or fallback when absent.
func (r *Response) ContentType(fallback string) string {
	if r == nil || r.Header == nil {
		return fallback
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return fallback
}

// Result is the outcome of classifying one attempt.
type Result struct {
	Verdict Verdict

	// Reason is empty for Success.
	Reason Reason

	// Detail is a truncated excerpt for diagnostics. It never drives control flow.
	Detail string

	// Response holds the success response, or the upstream response to relay
	// verbatim for a Terminal result with a parseable body.
	Response *Response
}

// Classifier turns upstream answers into Results. Implementations must be
// pure and safe for concurrent use.
type Classifier interface {
	// ClassifyResponse classifies an upstream response. body may be nil when
	// the status is 200 and the caller has not read it.
	ClassifyResponse(status int, header http.Header, body []byte) Result

	// ClassifyError classifies a transport error raised before a response
	// was received.
	ClassifyError(err error) Result
}

// Default keyword sets matched against the upstream "error" field.
var (
	DefaultRateLimitKeywords = []string{"rate limit", "rate_limit"}
	DefaultSensitiveKeywords = []string{"sensitive"}
)

// KeywordClassifier detects rate limiting and content rejection by searching
// the upstream JSON "error" field for keywords.
type KeywordClassifier struct {
	rateLimit []string
	sensitive []string
}

// NewKeywordClassifier creates a classifier with the given keyword sets.
// Empty sets fall back to the defaults. Matching is case-insensitive.
func NewKeywordClassifier(rateLimit, sensitive []string) *KeywordClassifier {
	if len(rateLimit) == 0 {
		rateLimit = DefaultRateLimitKeywords
	}
	if len(sensitive) == 0 {
		sensitive = DefaultSensitiveKeywords
	}
	return &KeywordClassifier{
		rateLimit: lowerAll(rateLimit),
		sensitive: lowerAll(sensitive),
	}
}

// ClassifyResponse implements Classifier.
func (c *KeywordClassifier) ClassifyResponse(status int, header http.Header, body []byte) Result {
	resp := &Response{StatusCode: status, Header: header, Body: body}
	if status == http.StatusOK {
		return Result{Verdict: Success, Response: resp}
	}

	reason := HTTPStatus(status)

	// Only a JSON object can carry an "error" field; bare JSON strings and
	// numbers are treated like plain text.
	if !isJSONObject(body) {
		detail := Excerpt(string(body))
		if detail == "" {
			detail = "no body"
		}
		verdict := Terminal
		if transientStatus(status) {
			verdict = Retryable
		}
		return Result{Verdict: verdict, Reason: reason, Detail: detail}
	}

	if errField := gjson.GetBytes(body, "error"); errField.Exists() {
		text := strings.ToLower(errField.String())
		if containsAny(text, c.rateLimit) {
			return Result{Verdict: Retryable, Reason: ReasonRateLimit, Detail: Excerpt(string(body))}
		}
		if containsAny(text, c.sensitive) {
			return Result{Verdict: Terminal, Reason: ReasonSensitive, Detail: "upstream flagged content"}
		}
	}

	return Result{Verdict: Terminal, Reason: reason, Detail: Excerpt(string(body)), Response: resp}
}

// ClassifyError implements Classifier.
func (c *KeywordClassifier) ClassifyError(err error) Result {
	return Result{Verdict: Retryable, Reason: ErrorReason(err), Detail: Excerpt(err.Error())}
}

// ErrorReason maps a transport error to timeout, connection_error or
// exception_<kind>.
func ErrorReason(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	if isConnectionError(err) {
		return ReasonConnection
	}
	if errors.Is(err, context.Canceled) {
		return Exception("canceled")
	}
	return Exception(errorKind(err))
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// errorKind names the innermost error type, e.g. "tls_error" or "error_string".
func errorKind(err error) string {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "tls_error"
	}
	inner := err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	name := fmt.Sprintf("%T", inner)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Excerpt trims s and truncates it to MaxDetailLength characters.
func Excerpt(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxDetailLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxDetailLength])
}

// transientStatus reports statuses worth retrying when the body is not JSON,
// typically an HTML error page from a load balancer in front of the upstream.
func transientStatus(status int) bool {
	return status >= 500 || status == http.StatusRequestTimeout
}

func isJSONObject(body []byte) bool {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return false
	}
	return gjson.ParseBytes(body).IsObject()
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
