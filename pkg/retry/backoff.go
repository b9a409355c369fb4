package retry

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backoff policy names accepted in configuration.
const (
	PolicyNone        = "none"
	PolicyFixed       = "fixed"
	PolicyExponential = "exponential"
)

// Backoff returns the delay before the attempt that follows failed attempt n
// (zero-based). Implementations must be non-decreasing in n and bounded.
type Backoff interface {
	Delay(n int) time.Duration
}

// NoBackoff retries immediately.
type NoBackoff struct{}

// Delay implements Backoff.
func (NoBackoff) Delay(int) time.Duration { return 0 }

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

// Delay implements Backoff.
func (b FixedBackoff) Delay(int) time.Duration { return b.Interval }

// ExponentialBackoff waits min(Base*2^n, Max).
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay implements Backoff.
func (b ExponentialBackoff) Delay(n int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	d := b.Base
	for i := 0; i < n; i++ {
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
		// Stop doubling before overflow.
		if d > time.Duration(1<<62) {
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// NewBackoff builds a Backoff from a policy name. For "fixed" only base is
// used; for "exponential" base is the first delay and max the cap.
func NewBackoff(policy string, base, max time.Duration) (Backoff, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", PolicyNone:
		return NoBackoff{}, nil
	case PolicyFixed:
		return FixedBackoff{Interval: base}, nil
	case PolicyExponential:
		if max > 0 && max < base {
			return nil, fmt.Errorf("exponential backoff max %s is below base %s", max, base)
		}
		return ExponentialBackoff{Base: base, Max: max}, nil
	default:
		return nil, fmt.Errorf("unknown backoff policy %q (expected none, fixed or exponential)", policy)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
