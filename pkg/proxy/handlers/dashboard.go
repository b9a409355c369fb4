package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// highRetries is the retry count from which the dashboard highlights an entry.
const highRetries = 3

var dashboardTemplate = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{
			"percent":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
			"highRetries": func(n int) bool { return n >= highRetries },
			"clock":       func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

// DashboardHandler renders the HTML overview of the request counters.
type DashboardHandler struct {
	stats  *StatsHandler
	logger *slog.Logger
}

// NewDashboardHandler creates a dashboard backed by the same data as the
// stats handler.
func NewDashboardHandler(source StatsSource, maxAttempts func() int, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		stats:  NewStatsHandler(source, maxAttempts),
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Render into a buffer so a template error never yields half a page.
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, h.stats.response()); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
