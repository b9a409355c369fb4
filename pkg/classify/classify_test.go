package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"unicode/utf8"
)

func TestKeywordClassifier_ClassifyResponse(t *testing.T) {
	c := NewKeywordClassifier(nil, nil)

	tests := []struct {
		name            string
		status          int
		body            string
		wantVerdict     Verdict
		wantReason      Reason
		wantDetail      string
		wantPassthrough bool
	}{
		{
			name:        "200 is success",
			status:      200,
			body:        `{"id":"x"}`,
			wantVerdict: Success,
			wantReason:  ReasonNone,
		},
		{
			name:        "200 with unread body is success",
			status:      200,
			body:        "",
			wantVerdict: Success,
			wantReason:  ReasonNone,
		},
		{
			name:        "rate limit phrase in error string",
			status:      429,
			body:        `{"error":"Rate limit exceeded"}`,
			wantVerdict: Retryable,
			wantReason:  ReasonRateLimit,
			wantDetail:  `{"error":"Rate limit exceeded"}`,
		},
		{
			name:        "rate_limit token in error object",
			status:      429,
			body:        `{"error":{"type":"rate_limit_error","message":"slow down"}}`,
			wantVerdict: Retryable,
			wantReason:  ReasonRateLimit,
			wantDetail:  `{"error":{"type":"rate_limit_error","message":"slow down"}}`,
		},
		{
			name:        "sensitive content is terminal",
			status:      400,
			body:        `{"error":{"message":"Input contains SENSITIVE words"}}`,
			wantVerdict: Terminal,
			wantReason:  ReasonSensitive,
			wantDetail:  "upstream flagged content",
		},
		{
			name:            "unrecognized json error is terminal passthrough",
			status:          401,
			body:            `{"error":{"message":"invalid api key"}}`,
			wantVerdict:     Terminal,
			wantReason:      "http_401",
			wantDetail:      `{"error":{"message":"invalid api key"}}`,
			wantPassthrough: true,
		},
		{
			name:            "json without error field is terminal passthrough",
			status:          404,
			body:            `{"detail":"not found"}`,
			wantVerdict:     Terminal,
			wantReason:      "http_404",
			wantDetail:      `{"detail":"not found"}`,
			wantPassthrough: true,
		},
		{
			name:            "keyword outside error field is ignored",
			status:          400,
			body:            `{"message":"rate limit"}`,
			wantVerdict:     Terminal,
			wantReason:      "http_400",
			wantDetail:      `{"message":"rate limit"}`,
			wantPassthrough: true,
		},
		{
			name:        "unparseable 5xx is retryable",
			status:      503,
			body:        "upstream down",
			wantVerdict: Retryable,
			wantReason:  "http_503",
			wantDetail:  "upstream down",
		},
		{
			name:        "bare json string counts as unparseable",
			status:      503,
			body:        `"upstream down"`,
			wantVerdict: Retryable,
			wantReason:  "http_503",
			wantDetail:  `"upstream down"`,
		},
		{
			name:        "empty 502 body",
			status:      502,
			body:        "",
			wantVerdict: Retryable,
			wantReason:  "http_502",
			wantDetail:  "no body",
		},
		{
			name:        "unparseable 4xx is terminal without passthrough",
			status:      400,
			body:        "<html>bad request</html>",
			wantVerdict: Terminal,
			wantReason:  "http_400",
			wantDetail:  "<html>bad request</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}
			got := c.ClassifyResponse(tt.status, http.Header{}, body)

			if got.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %v, want %v", got.Verdict, tt.wantVerdict)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantDetail != "" && got.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got.Detail, tt.wantDetail)
			}

			hasPassthrough := got.Verdict == Terminal && got.Response != nil
			if hasPassthrough != tt.wantPassthrough {
				t.Errorf("passthrough = %v, want %v", hasPassthrough, tt.wantPassthrough)
			}
			if got.Verdict == Success && got.Response == nil {
				t.Error("success result must carry the response")
			}
		})
	}
}

func TestKeywordClassifier_CustomKeywords(t *testing.T) {
	c := NewKeywordClassifier([]string{"Too Many Requests"}, []string{"content_filter"})

	got := c.ClassifyResponse(429, nil, []byte(`{"error":"too many requests, try later"}`))
	if got.Reason != ReasonRateLimit {
		t.Errorf("custom rate limit keyword: reason = %q", got.Reason)
	}

	got = c.ClassifyResponse(429, nil, []byte(`{"error":"rate limit exceeded"}`))
	if got.Verdict != Terminal {
		t.Errorf("default keyword should no longer match, verdict = %v", got.Verdict)
	}

	got = c.ClassifyResponse(400, nil, []byte(`{"error":{"code":"content_filter"}}`))
	if got.Reason != ReasonSensitive {
		t.Errorf("custom sensitive keyword: reason = %q", got.Reason)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type weirdError struct{}

func (weirdError) Error() string { return "something odd" }

func TestKeywordClassifier_ClassifyError(t *testing.T) {
	c := NewKeywordClassifier(nil, nil)

	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"deadline exceeded", context.DeadlineExceeded, ReasonTimeout},
		{"wrapped deadline", fmt.Errorf("attempt: %w", context.DeadlineExceeded), ReasonTimeout},
		{"net timeout", &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}}, ReasonTimeout},
		{"dial refused", &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}, ReasonConnection},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), ReasonConnection},
		{"eof before response", &url.Error{Op: "Post", URL: "http://x", Err: io.EOF}, ReasonConnection},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "upstream"}, ReasonConnection},
		{"canceled", context.Canceled, "exception_canceled"},
		{"unknown error type", &url.Error{Op: "Post", URL: "http://x", Err: weirdError{}}, "exception_weird_error"},
		{"plain errors.New", errors.New("boom"), "exception_error_string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ClassifyError(tt.err)
			if got.Verdict != Retryable {
				t.Errorf("verdict = %v, want retryable", got.Verdict)
			}
			if got.Reason != tt.want {
				t.Errorf("reason = %q, want %q", got.Reason, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("é", MaxDetailLength+50)
	got := Excerpt(long)
	if n := utf8.RuneCountInString(got); n != MaxDetailLength {
		t.Errorf("excerpt length = %d, want %d", n, MaxDetailLength)
	}
	if !utf8.ValidString(got) {
		t.Error("excerpt must not split a multi-byte character")
	}

	if got := Excerpt("  short  "); got != "short" {
		t.Errorf("Excerpt(short) = %q", got)
	}
}

func TestReasonHelpers(t *testing.T) {
	if got := HTTPStatus(503); got != "http_503" || !got.IsHTTPStatus() {
		t.Errorf("HTTPStatus(503) = %q", got)
	}
	if got := Exception("ConnectTimeoutError"); got != "exception_connect_timeout_error" || !got.IsException() {
		t.Errorf("Exception() = %q", got)
	}
	if got := Exception("*url.Error"); got != "exception_url_error" {
		t.Errorf("Exception(*url.Error) = %q", got)
	}
	if ReasonNone.String() != "-" {
		t.Errorf("empty reason should render as -")
	}
}
