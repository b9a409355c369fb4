package stats

import (
	"sync"
	"time"

	"mercator-hq/relay/pkg/classify"
)

// DefaultCapacity is the number of recent LogEntries kept.
const DefaultCapacity = 50

// Request statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// LogEntry describes one completed request. It is immutable once recorded.
type LogEntry struct {
	Endpoint string    `json:"endpoint"`
	Time     time.Time `json:"time"`
	Status   string    `json:"status"`
	Error    string    `json:"error"`
	Retries  int       `json:"retries"`
	Detail   string    `json:"detail"`
}

// Stats holds the process-wide request counters.
type Stats struct {
	TotalRequests   int64     `json:"total_requests"`
	SuccessRequests int64     `json:"success_requests"`
	FailedRequests  int64     `json:"failed_requests"`
	RateLimitErrors int64     `json:"rate_limit_errors"`
	StartTime       time.Time `json:"start_time"`
}

// Snapshot is a consistent point-in-time view of the recorder.
type Snapshot struct {
	Stats

	// Entries are the recent requests, newest first.
	Entries []LogEntry `json:"recent_logs"`

	// SuccessRate is success/total as a percentage, 0 when idle.
	SuccessRate float64 `json:"success_rate"`

	Uptime time.Duration `json:"uptime_ns"`
}

// Recorder keeps request counters and a bounded ring of recent entries. The
// counters and the ring are updated under one mutex so no request is ever
// half-recorded.
type Recorder struct {
	mu    sync.Mutex
	stats Stats
	ring  []LogEntry
	head  int // index of the newest entry
	size  int
	now   func() time.Time
}

// NewRecorder creates a Recorder with the given ring capacity. A capacity
// of zero or less uses DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Recorder{
		ring: make([]LogEntry, capacity),
		head: -1,
		now:  time.Now,
	}
	r.stats.StartTime = r.now()
	return r
}

// Record appends a LogEntry and updates the counters as a single unit.
// status is StatusSuccess or StatusFailed; anything else counts as failed.
func (r *Recorder) Record(endpoint, status string, reason classify.Reason, retries int, detail string) LogEntry {
	if status != StatusSuccess {
		status = StatusFailed
	}
	detail = classify.Excerpt(detail)
	if detail == "" {
		detail = "-"
	}

	r.mu.Lock()
	entry := LogEntry{
		Endpoint: endpoint,
		Time:     r.now(),
		Status:   status,
		Error:    reason.String(),
		Retries:  retries,
		Detail:   detail,
	}

	r.stats.TotalRequests++
	if status == StatusSuccess {
		r.stats.SuccessRequests++
	} else {
		r.stats.FailedRequests++
		if reason == classify.ReasonRateLimit {
			r.stats.RateLimitErrors++
		}
	}

	r.head = (r.head + 1) % len(r.ring)
	r.ring[r.head] = entry
	if r.size < len(r.ring) {
		r.size++
	}
	r.mu.Unlock()

	return entry
}

// Snapshot returns the counters and recent entries, newest first.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]LogEntry, 0, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - i + len(r.ring)) % len(r.ring)
		entries = append(entries, r.ring[idx])
	}

	snap := Snapshot{
		Stats:   r.stats,
		Entries: entries,
		Uptime:  r.now().Sub(r.stats.StartTime),
	}
	if r.stats.TotalRequests > 0 {
		snap.SuccessRate = float64(r.stats.SuccessRequests) / float64(r.stats.TotalRequests) * 100
	}
	return snap
}

// Capacity returns the ring capacity.
func (r *Recorder) Capacity() int {
	return len(r.ring)
}
