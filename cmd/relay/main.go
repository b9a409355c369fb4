// Relay is a credential-gating reverse proxy for LLM upstreams.
//
// Callers authenticate with a shared access key; the relay swaps it for the
// upstream credential, retries transient upstream failures, relays streaming
// responses as Server-Sent Events, and keeps request statistics.
//
// Usage:
//
//	# Start from environment variables only (PROXY_URL, API_KEY, MY_ACCESS_KEY)
//	relay run
//
//	# Start with a configuration file and hot reload
//	relay run --config relay.yaml --watch
//
//	# Check a configuration file
//	relay validate --config relay.yaml
//
//	# Show the counters of a running relay
//	relay stats --addr http://127.0.0.1:8080
//
//	# Show version information
//	relay version
package main

func main() {
	Execute()
}
