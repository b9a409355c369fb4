// Package classify decides, for a single upstream attempt, whether the answer
// is a success, a transient failure worth retrying, or a terminal failure.
//
// Upstream LLM endpoints do not share a structured error vocabulary, so the
// default KeywordClassifier inspects the JSON "error" field of a non-200 body
// for keywords:
//
//   - "rate limit" / "rate_limit" → Retryable(rate_limit)
//   - "sensitive"                 → Terminal(sensitive_words)
//
// Any other parseable JSON error is terminal and carries the upstream response
// so it can be relayed verbatim. Non-JSON bodies on 5xx/408 are retryable.
// Transport errors are always retryable and are reported as timeout,
// connection_error or exception_<kind>.
//
// The keyword heuristic depends on upstream wording. Callers depend on the
// Classifier interface so a structured matcher can replace it.
package classify
