package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Reporter periodically logs a one-line summary of the recorder's counters.
type Reporter struct {
	recorder *Recorder
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewReporter creates a reporter for recorder. schedule is a standard cron
// expression such as "*/5 * * * *". An empty schedule disables reporting.
func NewReporter(recorder *Recorder, schedule string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		recorder: recorder,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "stats.reporter"),
	}
}

// ValidateSchedule reports whether schedule is a valid standard cron expression.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Start schedules the summary. The reporter stops when ctx is cancelled.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Debug("stats report schedule not configured, skipping reporter")
		return nil
	}
	if err := ValidateSchedule(r.schedule); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc(r.schedule, r.Report); err != nil {
		return fmt.Errorf("failed to schedule stats report: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("stats reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Report logs the current counters once.
func (r *Reporter) Report() {
	snap := r.recorder.Snapshot()
	r.logger.Info("request summary",
		"total", snap.TotalRequests,
		"success", snap.SuccessRequests,
		"failed", snap.FailedRequests,
		"rate_limited", snap.RateLimitErrors,
		"success_rate", fmt.Sprintf("%.1f%%", snap.SuccessRate),
		"uptime", snap.Uptime.Round(1e9).String(),
	)
}

// Stop stops the reporter and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("stats reporter stopped")
	}
}

// IsRunning reports whether the reporter is scheduled.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
