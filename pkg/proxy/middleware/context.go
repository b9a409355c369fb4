package middleware

type contextKey string

const (
	// RequestIDKey holds the correlation ID assigned by RequestID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey holds the time Logging first saw the request.
	StartTimeKey contextKey = "start_time"
)
