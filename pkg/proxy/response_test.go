package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/relay/pkg/classify"
	"mercator-hq/relay/pkg/proxy/types"
)

func TestWriteUpstreamResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *classify.Response
		wantCT   string
		wantCode int
	}{
		{
			name: "keeps upstream content type",
			resp: &classify.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
				Body:       []byte(`{"id":"x"}`),
			},
			wantCT:   "application/json; charset=utf-8",
			wantCode: 200,
		},
		{
			name:     "defaults to json",
			resp:     &classify.Response{StatusCode: 401, Body: []byte(`{"error":"no"}`)},
			wantCT:   "application/json",
			wantCode: 401,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteUpstreamResponse(w, tt.resp); err != nil {
				t.Fatalf("WriteUpstreamResponse() error = %v", err)
			}
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.wantCT {
				t.Errorf("Content-Type = %q, want %q", ct, tt.wantCT)
			}
			if w.Body.String() != string(tt.resp.Body) {
				t.Errorf("body = %q, must be relayed verbatim", w.Body.String())
			}
		})
	}
}

func TestWriteSSEEvent(t *testing.T) {
	w := httptest.NewRecorder()
	SetSSEHeaders(w)
	if err := WriteSSEEvent(w, []byte(`{"error":"x"}`)); err != nil {
		t.Fatalf("WriteSSEEvent() error = %v", err)
	}

	if got := w.Body.String(); got != "data: {\"error\":\"x\"}\n\n" {
		t.Errorf("event = %q", got)
	}
	if !w.Flushed {
		t.Error("event was not flushed")
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Accel-Buffering") != "no" || w.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("missing anti-buffering headers: %v", w.Header())
	}
}

func TestFailure_StatusCode(t *testing.T) {
	tests := []struct {
		reason classify.Reason
		want   int
	}{
		{classify.ReasonRateLimit, 429},
		{classify.ReasonTimeout, 504},
		{classify.ReasonConnection, 503},
		{classify.ReasonSensitive, 400},
		{classify.ReasonInvalidJSON, 400},
		{classify.ReasonAuth, 401},
		{"http_503", 500},
		{classify.ReasonParse, 500},
		{"exception_url_error", 500},
	}

	for _, tt := range tests {
		if got := (Failure{Reason: tt.reason}).StatusCode(); got != tt.want {
			t.Errorf("StatusCode(%s) = %d, want %d", tt.reason, got, tt.want)
		}
	}
}

func TestWriteFailure_OpenAIShape(t *testing.T) {
	w := httptest.NewRecorder()
	f := Failure{Reason: classify.ReasonRateLimit, Detail: "slow down", Attempts: 3, Exhausted: true}
	if err := WriteFailure(w, types.ProtocolOpenAI, f); err != nil {
		t.Fatalf("WriteFailure() error = %v", err)
	}

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d", w.Code)
	}

	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error.Code != "rate_limit" || body.Error.Type != types.ErrorTypeRateLimitExceeded {
		t.Errorf("error = %+v", body.Error)
	}
	if !strings.Contains(body.Error.Message, "all_retries_failed") || !strings.Contains(body.Error.Message, "3 attempts") {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestWriteFailure_AnthropicShape(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteFailure(w, types.ProtocolAnthropic, Failure{Reason: classify.ReasonAuth}); err != nil {
		t.Fatalf("WriteFailure() error = %v", err)
	}

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["type"] != "error" {
		t.Errorf("type = %v, want error", body["type"])
	}
	inner, _ := body["error"].(map[string]interface{})
	if inner["type"] != types.AnthropicTypeAuthentication {
		t.Errorf("error.type = %v", inner["type"])
	}
}

func TestErrorEvent(t *testing.T) {
	payload := ErrorEvent(types.ProtocolOpenAI, Failure{Reason: classify.ReasonTimeout, Attempts: 2, Exhausted: true})

	var body types.ErrorResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("invalid JSON payload %q: %v", payload, err)
	}
	if body.Error.Code != "timeout" {
		t.Errorf("code = %q", body.Error.Code)
	}
	if strings.Contains(string(payload), "\n") {
		t.Error("event payload must be a single line")
	}
}
