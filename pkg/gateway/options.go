package gateway

import (
	"errors"
	"fmt"
	"time"

	"mercator-hq/relay/pkg/classify"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/relay"
	"mercator-hq/relay/pkg/retry"
)

// Options are the gateway settings that may change while serving.
type Options struct {
	// AccessKey is the key callers must present.
	AccessKey string

	// MaxBodyBytes limits caller bodies.
	MaxBodyBytes int64

	// RejectInvalidJSON rejects non-JSON POST bodies before any upstream call.
	RejectInvalidJSON bool

	// Per-attempt timeouts. StreamTimeout covers the handshake only.
	RequestTimeout time.Duration
	StreamTimeout  time.Duration
	ModelsTimeout  time.Duration

	// MaxAttempts is the total number of upstream attempts per request.
	MaxAttempts int

	// Backoff is the delay between attempts. Nil retries immediately.
	Backoff retry.Backoff

	RateLimitKeywords []string
	SensitiveKeywords []string
}

// OptionsFromConfig extracts the runtime options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	backoff, err := retry.NewBackoff(cfg.Retry.Backoff.Policy, cfg.Retry.Backoff.Base, cfg.Retry.Backoff.Max)
	if err != nil {
		return Options{}, fmt.Errorf("invalid retry backoff: %w", err)
	}

	return Options{
		AccessKey:         cfg.Auth.AccessKey,
		MaxBodyBytes:      cfg.Proxy.MaxBodyBytes,
		RejectInvalidJSON: cfg.Auth.RejectInvalidJSON,
		RequestTimeout:    cfg.Upstream.RequestTimeout,
		StreamTimeout:     cfg.Upstream.StreamTimeout,
		ModelsTimeout:     cfg.Upstream.ModelsTimeout,
		MaxAttempts:       cfg.Retry.MaxAttempts,
		Backoff:           backoff,
		RateLimitKeywords: cfg.Retry.RateLimitKeywords,
		SensitiveKeywords: cfg.Retry.SensitiveKeywords,
	}, nil
}

// runtime is an immutable snapshot of Options with the machinery built from
// them. Requests load it once and use it throughout.
type runtime struct {
	opts       Options
	accessKey  []byte
	controller *retry.Controller
	relay      *relay.Relay
}

func (g *Gateway) build(opts Options) (*runtime, error) {
	if opts.AccessKey == "" {
		return nil, errors.New("access key is required")
	}

	controller, err := retry.New(retry.Config{
		MaxAttempts: opts.MaxAttempts,
		Backoff:     opts.Backoff,
		Classifier:  classify.NewKeywordClassifier(opts.RateLimitKeywords, opts.SensitiveKeywords),
		Logger:      g.logger,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		opts:       opts,
		accessKey:  []byte(opts.AccessKey),
		controller: controller,
		relay:      relay.New(controller, g.logger),
	}, nil
}

// timeout returns the per-attempt timeout for a call to e.
func (rt *runtime) timeout(e Endpoint, stream bool) time.Duration {
	switch {
	case e.Catalog:
		return rt.opts.ModelsTimeout
	case stream:
		return rt.opts.StreamTimeout
	default:
		return rt.opts.RequestTimeout
	}
}
