package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/classify"
)

// ErrInvalidMaxAttempts is returned by New when MaxAttempts is not positive.
var ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")

// MaxErrorBodyBytes bounds how much of a non-200 body is read for classification.
const MaxErrorBodyBytes = 1 << 20

// Attempt performs one upstream invocation. It is called once per attempt and
// must build a fresh request each time.
type Attempt func(ctx context.Context) (*http.Response, error)

// ObserveFunc is notified after every classified attempt.
type ObserveFunc func(n int, result classify.Result, elapsed time.Duration)

// Config configures a Controller.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the delay policy between attempts. Nil means no delay.
	Backoff Backoff

	// Classifier decides the verdict of each attempt. Nil uses the default
	// keyword classifier.
	Classifier classify.Classifier

	Logger *slog.Logger
}

// Controller drives repeated attempts of an upstream call. It holds no
// per-request state and is safe for concurrent use.
type Controller struct {
	maxAttempts int
	backoff     Backoff
	classifier  classify.Classifier
	logger      *slog.Logger
}

// New creates a Controller. It rejects MaxAttempts <= 0.
func New(cfg Config) (*Controller, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxAttempts, cfg.MaxAttempts)
	}
	if cfg.Backoff == nil {
		cfg.Backoff = NoBackoff{}
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.NewKeywordClassifier(nil, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		classifier:  cfg.Classifier,
		logger:      cfg.Logger,
	}, nil
}

// MaxAttempts returns the configured attempt ceiling.
func (c *Controller) MaxAttempts() int { return c.maxAttempts }

// Classifier returns the classifier used for every attempt.
func (c *Controller) Classifier() classify.Classifier { return c.classifier }

// Wait blocks for the backoff delay that follows failed attempt n. It returns
// early with the context error if ctx is done.
func (c *Controller) Wait(ctx context.Context, n int) error {
	return sleep(ctx, c.backoff.Delay(n))
}

// Outcome is the final result of a retry sequence.
type Outcome struct {
	// Response is the success response, or the upstream response to relay
	// verbatim when Passthrough is set.
	Response *classify.Response

	// Attempt is the zero-based index of the last attempt made.
	Attempt int

	// Reason is empty on success.
	Reason classify.Reason
	Detail string

	// Passthrough marks a terminal failure whose upstream response should be
	// relayed as-is.
	Passthrough bool

	// Exhausted is set when every attempt was retryable.
	Exhausted bool

	// Abandoned is set when the caller's context ended the sequence.
	Abandoned bool
}

// OK reports whether the sequence ended in success.
func (o Outcome) OK() bool {
	return o.Reason == classify.ReasonNone && !o.Abandoned
}

// Run invokes attempt until it succeeds, fails terminally, or MaxAttempts is
// reached. observe may be nil.
func (c *Controller) Run(ctx context.Context, attempt Attempt, observe ObserveFunc) Outcome {
	var last classify.Result

	for n := 0; n < c.maxAttempts; n++ {
		if n > 0 {
			if err := c.Wait(ctx, n-1); err != nil {
				return abandoned(n-1, err)
			}
		}

		start := time.Now()
		result := c.do(ctx, attempt)
		elapsed := time.Since(start)
		if observe != nil {
			observe(n, result, elapsed)
		}

		switch result.Verdict {
		case classify.Success:
			return Outcome{Response: result.Response, Attempt: n}

		case classify.Terminal:
			c.logger.Debug("upstream attempt failed terminally",
				"attempt", n,
				"reason", result.Reason.String(),
			)
			return Outcome{
				Response:    result.Response,
				Attempt:     n,
				Reason:      result.Reason,
				Detail:      result.Detail,
				Passthrough: result.Response != nil,
			}
		}

		if ctx.Err() != nil {
			return abandoned(n, ctx.Err())
		}

		last = result
		c.logger.Debug("upstream attempt failed, retrying",
			"attempt", n,
			"max_attempts", c.maxAttempts,
			"reason", result.Reason.String(),
			"detail", result.Detail,
		)
	}

	return Outcome{
		Attempt:   c.maxAttempts - 1,
		Reason:    last.Reason,
		Detail:    last.Detail,
		Exhausted: true,
	}
}

// do performs and classifies a single attempt, always closing the body.
func (c *Controller) do(ctx context.Context, attempt Attempt) classify.Result {
	resp, err := attempt(ctx)
	if err != nil {
		return c.classifier.ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodyBytes))
		return c.classifier.ClassifyResponse(resp.StatusCode, resp.Header, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// A body read cut off by the attempt timeout is a timeout, not a
		// malformed response.
		if ctx.Err() != nil || classify.ErrorReason(err) == classify.ReasonTimeout {
			return c.classifier.ClassifyError(err)
		}
		return classify.Result{
			Verdict: classify.Retryable,
			Reason:  classify.ReasonParse,
			Detail:  classify.Excerpt(err.Error()),
		}
	}
	return c.classifier.ClassifyResponse(resp.StatusCode, resp.Header, body)
}

func abandoned(n int, err error) Outcome {
	if n < 0 {
		n = 0
	}
	return Outcome{
		Attempt:   n,
		Reason:    AbandonReason(err),
		Detail:    "client went away",
		Abandoned: true,
	}
}

// AbandonReason is the reason recorded when the caller's context ends a
// request: timeout for a deadline, client_closed otherwise.
func AbandonReason(err error) classify.Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return classify.ReasonTimeout
	}
	return classify.ReasonClientClosed
}
