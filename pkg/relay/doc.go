// Package relay forwards upstream event streams to the caller while they are
// still arriving.
//
// A streaming request cannot be buffered and retried after the fact, so a
// session is a two-phase state machine:
//
//	Attempting ──200──▶ Committed ──▶ Relaying ──EOF/error──▶ Ended
//	    │
//	    └──terminal or retries exhausted──▶ Ended (one error event)
//
// While Attempting, handshake failures (transport errors and non-200
// statuses) are classified and retried with the retry.Controller's ceiling
// and backoff. The first 200 commits the session: stream headers are sent
// and every upstream line is framed and flushed immediately. After commit
// nothing is retried; an upstream break is reported as a single in-band
// error event.
//
// Framing repairs upstreams that emit bare JSON per line: a line without the
// "data:" prefix is prefixed with "data: " once and closed with a blank line
// at once. Lines the upstream framed itself (data:, event:, id:, retry:,
// comments) pass through unchanged and the upstream's blank line ends the
// event, so multi-line events reach the caller intact. An event left open at
// EOF is closed. No terminal sentinel is synthesized when the upstream ends.
//
// If the caller disconnects, the session is abandoned at once with reason
// client_closed and the upstream body is closed.
package relay
