package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed pause between consecutive classifier calls in a batch.
type Pacer struct {
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer returns a pacer that waits delay on every Wait call.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, sleep: sleepCtx}
}

// Wait blocks for the configured delay. Returns an error if ctx is cancelled
// while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.sleep(ctx, p.delay); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ThrottledDoer is a decorator that waits on a shared token bucket before
// delegating to the wrapped Doer. Every path to the classifier (single
// submissions, manual pastes and batches) should share one limiter, since
// the upstream enforces one rate limit per API key.
type ThrottledDoer struct {
	inner   Doer
	limiter *rate.Limiter
}

// NewThrottledDoer wraps inner with limiter. A nil limiter disables throttling.
func NewThrottledDoer(inner Doer, limiter *rate.Limiter) *ThrottledDoer {
	return &ThrottledDoer{inner: inner, limiter: limiter}
}

// NewLimiter returns a limiter allowing perMinute requests per minute with a
// burst of one, or nil when perMinute is not positive.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Do waits for the limiter to allow a request, then delegates to the wrapped Doer.
func (d *ThrottledDoer) Do(req *http.Request) (*http.Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("classifier throttle: %w", err)
		}
	}
	return d.inner.Do(req)
}
