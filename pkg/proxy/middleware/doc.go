// Package middleware provides the HTTP middleware wrapped around every route.
//
// The chain, outermost first:
//
//	Recovery → RequestID → Logging → CORS → handler
//
// RecoveryMiddleware turns panics into a 500 OpenAI-style error body and logs
// the stack. RequestIDMiddleware assigns a UUID (or keeps the caller's
// X-Request-ID) and stores it in the context for the gateway's logs.
// LoggingMiddleware writes one structured line per request; its response
// writer forwards Flush and Unwrap so event streams are not buffered.
// CORSMiddleware is optional and answers browser preflights.
//
// No timeout middleware is installed. Streams may run for minutes and each
// upstream attempt carries its own timeout.
package middleware
