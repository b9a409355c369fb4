package handlers

import (
	"net/http"

	"mercator-hq/relay/pkg/proxy"
)

// HealthHandler answers liveness probes. It never contacts the upstream.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
