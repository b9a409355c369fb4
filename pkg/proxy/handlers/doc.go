// Package handlers provides the relay's operational HTTP endpoints.
//
//   - HealthHandler answers GET /health with {"status":"ok"} and never
//     contacts the upstream.
//   - StatsHandler serves the stats recorder's snapshot as JSON.
//   - DashboardHandler renders the same snapshot as an HTML page: counters,
//     success rate, rate-limit errors, uptime, the attempt ceiling and the
//     recent request log with retry badges.
//
// The forwarding endpoints live in package gateway.
package handlers
