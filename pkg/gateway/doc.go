// Package gateway implements the forwarding endpoints.
//
// Each request is authenticated against the configured access key, read once,
// and forwarded upstream through either the retry controller (buffered
// responses) or the streaming relay (requests with "stream": true). The body
// is forwarded byte for byte; only the credential is replaced.
//
// Every request is recorded exactly once in the stats recorder and in the
// metrics collector, including requests rejected before any upstream call.
//
// Options that may change while serving (access key, attempt ceiling,
// backoff, timeouts, keyword sets) are swapped atomically with Apply.
// Requests already in flight keep the options they started with.
package gateway
