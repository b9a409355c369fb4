package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/relay/pkg/classify"
)

// WriteJSONResponse writes a JSON response to the HTTP response writer.
// It sets the appropriate content-type header and handles marshaling errors.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteUpstreamResponse relays an upstream status and body verbatim. The
// upstream Content-Type is kept, defaulting to application/json.
func WriteUpstreamResponse(w http.ResponseWriter, resp *classify.Response) error {
	w.Header().Set("Content-Type", resp.ContentType("application/json"))
	w.WriteHeader(resp.StatusCode)

	if _, err := w.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write upstream response: %w", err)
	}
	return nil
}

// SetSSEHeaders sets the headers for a Server-Sent Events stream.
// X-Accel-Buffering disables response buffering in nginx-style front proxies.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// WriteSSEEvent writes a single "data: <payload>\n\n" event and flushes it.
func WriteSSEEvent(w http.ResponseWriter, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write SSE event: %w", err)
	}
	return Flush(w)
}

// Flush pushes buffered bytes to the client. Writers that cannot flush are
// left alone.
func Flush(w http.ResponseWriter) error {
	err := http.NewResponseController(w).Flush()
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
