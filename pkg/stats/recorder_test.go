package stats

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/relay/pkg/classify"
)

func TestRecorder_Record(t *testing.T) {
	r := NewRecorder(0)
	if r.Capacity() != DefaultCapacity {
		t.Fatalf("capacity = %d, want %d", r.Capacity(), DefaultCapacity)
	}

	r.Record("chat", StatusSuccess, classify.ReasonNone, 2, "")
	r.Record("chat", StatusFailed, classify.ReasonRateLimit, 2, `{"error":"rate limit"}`)
	r.Record("messages", StatusFailed, classify.ReasonAuth, 0, "invalid access key")

	snap := r.Snapshot()
	if snap.TotalRequests != 3 || snap.SuccessRequests != 1 || snap.FailedRequests != 2 {
		t.Errorf("counters = %+v", snap.Stats)
	}
	if snap.RateLimitErrors != 1 {
		t.Errorf("rate limit errors = %d, want 1", snap.RateLimitErrors)
	}

	if len(snap.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(snap.Entries))
	}
	newest := snap.Entries[0]
	if newest.Endpoint != "messages" || newest.Error != "auth_error" || newest.Retries != 0 {
		t.Errorf("newest entry = %+v", newest)
	}
	oldest := snap.Entries[2]
	if oldest.Error != "-" || oldest.Detail != "-" || oldest.Status != StatusSuccess {
		t.Errorf("success entry should use '-' placeholders, got %+v", oldest)
	}
}

func TestRecorder_RingEvictsOldest(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(fmt.Sprintf("e%d", i), StatusSuccess, classify.ReasonNone, 0, "")
	}

	snap := r.Snapshot()
	if len(snap.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(snap.Entries))
	}
	want := []string{"e4", "e3", "e2"}
	for i, e := range snap.Entries {
		if e.Endpoint != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Endpoint, want[i])
		}
	}
	if snap.TotalRequests != 5 {
		t.Errorf("total = %d, counters must not be bounded by the ring", snap.TotalRequests)
	}
}

func TestRecorder_DetailTruncated(t *testing.T) {
	r := NewRecorder(1)
	entry := r.Record("chat", StatusFailed, "http_500", 0, strings.Repeat("x", 1000))
	if len(entry.Detail) != classify.MaxDetailLength {
		t.Errorf("detail length = %d, want %d", len(entry.Detail), classify.MaxDetailLength)
	}
}

func TestRecorder_UnknownStatusCountsAsFailed(t *testing.T) {
	r := NewRecorder(1)
	r.Record("chat", "weird", "http_500", 0, "")
	snap := r.Snapshot()
	if snap.FailedRequests != 1 || snap.Entries[0].Status != StatusFailed {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRecorder_SuccessRate(t *testing.T) {
	r := NewRecorder(10)
	if rate := r.Snapshot().SuccessRate; rate != 0 {
		t.Errorf("idle success rate = %v, want 0", rate)
	}
	r.Record("chat", StatusSuccess, classify.ReasonNone, 0, "")
	r.Record("chat", StatusSuccess, classify.ReasonNone, 0, "")
	r.Record("chat", StatusSuccess, classify.ReasonNone, 0, "")
	r.Record("chat", StatusFailed, classify.ReasonTimeout, 2, "")
	if rate := r.Snapshot().SuccessRate; rate != 75 {
		t.Errorf("success rate = %v, want 75", rate)
	}
}

func TestRecorder_ConcurrentInvariant(t *testing.T) {
	r := NewRecorder(DefaultCapacity)

	const workers = 16
	const perWorker = 500

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := make(chan string, 1)

	// Reader checks the invariant on every snapshot while writers run.
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := r.Snapshot()
			if s.TotalRequests != s.SuccessRequests+s.FailedRequests || s.RateLimitErrors > s.FailedRequests {
				select {
				case violations <- fmt.Sprintf("%+v", s.Stats):
				default:
				}
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				switch (w + i) % 3 {
				case 0:
					r.Record("chat", StatusSuccess, classify.ReasonNone, 0, "")
				case 1:
					r.Record("chat", StatusFailed, classify.ReasonRateLimit, 2, "")
				default:
					r.Record("messages", StatusFailed, classify.ReasonTimeout, 1, "")
				}
			}
		}(w)
	}
	wg.Wait()
	close(stop)

	select {
	case v := <-violations:
		t.Fatalf("invariant violated: %s", v)
	default:
	}

	s := r.Snapshot()
	if s.TotalRequests != workers*perWorker {
		t.Errorf("total = %d, want %d", s.TotalRequests, workers*perWorker)
	}
	if s.TotalRequests != s.SuccessRequests+s.FailedRequests {
		t.Errorf("total != success + failed: %+v", s.Stats)
	}
	if len(s.Entries) != DefaultCapacity {
		t.Errorf("entries = %d, want %d", len(s.Entries), DefaultCapacity)
	}
}

func TestValidateSchedule(t *testing.T) {
	if err := ValidateSchedule(""); err != nil {
		t.Errorf("empty schedule should be valid: %v", err)
	}
	if err := ValidateSchedule("*/5 * * * *"); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if err := ValidateSchedule("every minute"); err == nil {
		t.Error("invalid schedule accepted")
	}
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := NewRecorder(5)
	r.Record("chat", StatusSuccess, classify.ReasonNone, 0, "")

	rep := NewReporter(r, "", logger)
	if err := rep.Start(context.Background()); err != nil {
		t.Fatalf("Start() with empty schedule error = %v", err)
	}
	if rep.IsRunning() {
		t.Error("reporter without schedule should not run")
	}

	rep.Report()
	if !strings.Contains(buf.String(), "total=1") {
		t.Errorf("summary log = %q", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	rep = NewReporter(r, "@every 1h", logger)
	if err := rep.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !rep.IsRunning() {
		t.Error("reporter should be running")
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for rep.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rep.IsRunning() {
		t.Error("reporter still running after context cancellation")
	}
}
