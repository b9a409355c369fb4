package handlers

import (
	"fmt"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/proxy"
	"mercator-hq/relay/pkg/stats"
)

// StatsSource provides a consistent view of the request counters.
// *stats.Recorder implements it.
type StatsSource interface {
	Snapshot() stats.Snapshot
}

// StatsResponse is the JSON body served by StatsHandler.
type StatsResponse struct {
	stats.Snapshot

	// Uptime is the human-readable form of Snapshot.Uptime.
	Uptime string `json:"uptime"`

	MaxAttempts int `json:"max_attempts"`
}

// StatsHandler serves the current counters and recent requests as JSON.
type StatsHandler struct {
	source      StatsSource
	maxAttempts func() int
}

// NewStatsHandler creates a stats handler. maxAttempts reports the attempt
// ceiling currently in effect and may be nil.
func NewStatsHandler(source StatsSource, maxAttempts func() int) *StatsHandler {
	return &StatsHandler{source: source, maxAttempts: maxAttempts}
}

// ServeHTTP implements http.Handler.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, h.response())
}

func (h *StatsHandler) response() StatsResponse {
	snap := h.source.Snapshot()
	resp := StatsResponse{
		Snapshot: snap,
		Uptime:   FormatUptime(snap.Uptime),
	}
	if h.maxAttempts != nil {
		resp.MaxAttempts = h.maxAttempts()
	}
	return resp
}

// FormatUptime renders d as H:MM:SS, with a day prefix past 24 hours.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second

	clock := fmt.Sprintf("%d:%02d:%02d", h, m, s)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}
