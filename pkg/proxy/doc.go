// Package proxy holds the HTTP helpers shared by the relay's handlers.
//
// # Requests
//
// ReadBody reads a caller body under a size limit without re-encoding it, so
// the bytes forwarded upstream are exactly the bytes received. IsStreamRequest
// inspects only the top-level "stream" flag; bodies that do not parse are
// treated as non-streaming. ExtractAccessKey finds the caller's access key in
// the header convention of the endpoint's protocol family.
//
// # Responses
//
// Successful upstream responses are relayed verbatim with WriteUpstreamResponse.
// Failures synthesized by the relay are described by a Failure, which maps its
// reason to an HTTP status:
//
//	rate_limit        429
//	timeout           504
//	connection_error  503
//	sensitive_words   400
//	invalid_json      400
//	auth_error        401
//	anything else     500
//
// and is rendered in the OpenAI or Anthropic error shape by WriteFailure, or
// as an in-band stream event payload by ErrorEvent.
//
// # Streaming
//
// SetSSEHeaders, WriteSSEEvent and Flush support Server-Sent Events. Flush goes
// through http.ResponseController so wrapped writers that implement Unwrap
// still flush.
package proxy
