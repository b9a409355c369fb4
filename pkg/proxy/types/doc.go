// Package types defines the caller-facing error bodies of the relay.
//
// Request and response payloads are forwarded as opaque bytes and have no
// types here. Only failures synthesized by the relay itself are shaped, in
// the convention of the endpoint's protocol family:
//
//	OpenAI:    {"error":{"message":"...","type":"rate_limit_exceeded","code":"rate_limit"}}
//	Anthropic: {"type":"error","error":{"type":"rate_limit_error","message":"..."}}
package types
