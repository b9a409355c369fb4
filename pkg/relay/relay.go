package relay

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/classify"
	"mercator-hq/relay/pkg/proxy"
	"mercator-hq/relay/pkg/retry"
)

// Phase is the state of a streaming session.
type Phase int

const (
	// PhaseAttempting means no byte has been sent to the caller yet, so a
	// failed handshake may still be retried.
	PhaseAttempting Phase = iota

	// PhaseCommitted means a 200 was received and the stream headers were
	// sent. Nothing can be retried from here on.
	PhaseCommitted

	// PhaseRelaying means upstream lines are being forwarded.
	PhaseRelaying

	// PhaseEnded means the caller's stream is closed.
	PhaseEnded
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseAttempting:
		return "attempting"
	case PhaseCommitted:
		return "committed"
	case PhaseRelaying:
		return "relaying"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// readBufferSize is the initial line buffer; longer lines grow it.
const readBufferSize = 32 * 1024

// ErrorEventFunc renders the JSON payload of the single in-band error event.
type ErrorEventFunc func(o retry.Outcome) []byte

// Result is the outcome of a streaming session.
type Result struct {
	retry.Outcome

	// Committed is set once the upstream stream was accepted.
	Committed bool

	// Events is the number of data events forwarded to the caller.
	Events int
}

// Relay forwards upstream event streams, retrying only before commit.
type Relay struct {
	controller *retry.Controller
	logger     *slog.Logger
}

// New creates a Relay that uses controller's attempt ceiling, backoff and
// classifier.
func New(controller *retry.Controller, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		controller: controller,
		logger:     logger.With("component", "relay"),
	}
}

// Run performs the attempt loop and relays the first accepted stream to w.
// onError renders the error event sent when no stream could be accepted or
// when the upstream stream breaks. observe may be nil.
func (r *Relay) Run(ctx context.Context, w http.ResponseWriter, attempt retry.Attempt, onError ErrorEventFunc, observe retry.ObserveFunc) Result {
	s := &session{
		w:       w,
		onError: onError,
		logger:  r.logger,
	}

	classifier := r.controller.Classifier()
	maxAttempts := r.controller.MaxAttempts()
	var last classify.Result

	for n := 0; n < maxAttempts; n++ {
		if n > 0 {
			if err := r.controller.Wait(ctx, n-1); err != nil {
				return s.abandon(n-1, err)
			}
		}

		start := time.Now()
		resp, result := handshake(ctx, attempt, classifier)
		if observe != nil {
			observe(n, result, time.Since(start))
		}

		switch result.Verdict {
		case classify.Success:
			s.commit(n)
			return s.relay(ctx, resp)

		case classify.Terminal:
			return s.fail(retry.Outcome{Attempt: n, Reason: result.Reason, Detail: result.Detail})
		}

		if ctx.Err() != nil {
			return s.abandon(n, ctx.Err())
		}

		last = result
		r.logger.Debug("stream handshake failed, retrying",
			"attempt", n,
			"max_attempts", maxAttempts,
			"reason", result.Reason.String(),
		)
	}

	return s.fail(retry.Outcome{
		Attempt:   maxAttempts - 1,
		Reason:    last.Reason,
		Detail:    last.Detail,
		Exhausted: true,
	})
}

// handshake performs one attempt up to the response headers. On success the
// open response is returned; otherwise the body is drained for
// classification and closed.
func handshake(ctx context.Context, attempt retry.Attempt, classifier classify.Classifier) (*http.Response, classify.Result) {
	resp, err := attempt(ctx)
	if err != nil {
		return nil, classifier.ClassifyError(err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp, classify.Result{Verdict: classify.Success}
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, retry.MaxErrorBodyBytes))
	return nil, classifier.ClassifyResponse(resp.StatusCode, resp.Header, body)
}

// session carries the per-request state machine.
type session struct {
	w       http.ResponseWriter
	onError ErrorEventFunc
	logger  *slog.Logger

	phase  Phase
	result Result

	// pending is set while an upstream-framed event awaits its blank line;
	// pendingData when that event has a data line.
	pending     bool
	pendingData bool
}

func (s *session) transition(to Phase) {
	s.logger.Debug("stream phase change", "from", s.phase.String(), "to", to.String())
	s.phase = to
}

// commit sends the stream headers. The caller now sees a 200.
func (s *session) commit(n int) {
	proxy.SetSSEHeaders(s.w)
	s.w.WriteHeader(http.StatusOK)
	_ = proxy.Flush(s.w)

	s.result.Attempt = n
	s.result.Committed = true
	s.transition(PhaseCommitted)
}

// relay forwards upstream lines until EOF, an upstream error, or the caller
// going away.
func (s *session) relay(ctx context.Context, resp *http.Response) Result {
	defer resp.Body.Close()
	s.transition(PhaseRelaying)

	reader := bufio.NewReaderSize(resp.Body, readBufferSize)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if ctx.Err() != nil {
				return s.abandon(s.result.Attempt, ctx.Err())
			}
			if werr := s.forward(line); werr != nil {
				return s.abandon(s.result.Attempt, werr)
			}
		}
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			if werr := s.closeEvent(); werr != nil {
				return s.abandon(s.result.Attempt, werr)
			}
			s.transition(PhaseEnded)
			return s.result
		}
		if ctx.Err() != nil {
			return s.abandon(s.result.Attempt, ctx.Err())
		}

		// The upstream broke after commit. Only an in-band event can tell
		// the caller.
		s.logger.Warn("upstream stream broke after commit",
			"attempt", s.result.Attempt,
			"events", s.result.Events,
			"error", err,
		)
		if werr := s.closeEvent(); werr != nil {
			return s.abandon(s.result.Attempt, werr)
		}
		outcome := retry.Outcome{
			Attempt: s.result.Attempt,
			Reason:  classify.ErrorReason(err),
			Detail:  classify.Excerpt(err.Error()),
		}
		s.writeError(outcome)
		return s.result
	}
}

// forward frames one upstream line and flushes it to the caller. Lines the
// upstream framed itself are closed by the upstream's own blank line, so
// multi-line events stay intact; bare lines are closed immediately.
func (s *session) forward(raw []byte) error {
	line := trimEOL(raw)
	if len(line) == 0 {
		return s.closeEvent()
	}

	framed, isData := frame(line)
	buf := make([]byte, 0, len(framed)+2)
	buf = append(buf, framed...)
	buf = append(buf, '\n')

	switch {
	case isData && len(framed) != len(line):
		// A bare line repaired by frame: it is a complete event.
		buf = append(buf, '\n')
		s.result.Events++
		s.pending, s.pendingData = false, false
	case isData:
		s.pending, s.pendingData = true, true
	default:
		s.pending = true
	}

	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	return proxy.Flush(s.w)
}

// closeEvent writes the blank line that ends the event in progress, if any.
func (s *session) closeEvent() error {
	if !s.pending {
		return nil
	}
	if s.pendingData {
		s.result.Events++
	}
	s.pending, s.pendingData = false, false

	if _, err := s.w.Write([]byte{'\n'}); err != nil {
		return err
	}
	return proxy.Flush(s.w)
}

// fail reports a failure before commit: the stream headers are sent followed
// by one error event.
func (s *session) fail(o retry.Outcome) Result {
	proxy.SetSSEHeaders(s.w)
	s.w.WriteHeader(http.StatusOK)
	s.writeError(o)
	return s.result
}

func (s *session) writeError(o retry.Outcome) {
	s.result.Outcome = o
	if s.onError != nil {
		if err := proxy.WriteSSEEvent(s.w, s.onError(o)); err != nil {
			s.logger.Debug("failed to deliver stream error event", "error", err)
		}
	}
	s.transition(PhaseEnded)
}

// abandon stops without writing anything further; the caller is gone.
func (s *session) abandon(n int, err error) Result {
	if n < 0 {
		n = 0
	}
	s.result.Outcome = retry.Outcome{
		Attempt:   n,
		Reason:    retry.AbandonReason(err),
		Detail:    "client went away",
		Abandoned: true,
	}
	s.transition(PhaseEnded)
	return s.result
}
