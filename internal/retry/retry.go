package retry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RateLimitInvoker is a Doer decorator that retries requests answered with
// 429 Too Many Requests. Attempt n waits n*backoff before the next try.
// Every other status, success or failure, is returned immediately.
type RateLimitInvoker struct {
	inner       Doer
	maxAttempts int
	backoff     time.Duration
	sleep       SleepFunc
	logger      *slog.Logger
}

var _ Doer = (*RateLimitInvoker)(nil)

// NewRateLimitInvoker wraps inner with 429 retry logic.
// maxAttempts is the total number of calls including the first (default: 3).
// backoff is multiplied by the attempt number before each retry (default: 5s).
func NewRateLimitInvoker(inner Doer, maxAttempts int, backoff time.Duration, logger *slog.Logger) *RateLimitInvoker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RateLimitInvoker{
		inner:       inner,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       Sleep,
		logger:      logger,
	}
}

// WithSleep replaces the backoff sleep, mainly for tests.
func (r *RateLimitInvoker) WithSleep(fn SleepFunc) *RateLimitInvoker {
	r.sleep = fn
	return r
}

// Do sends req, retrying while the response is 429. When attempts run out,
// or ctx is cancelled during a backoff, the last 429 response is returned
// without error; the caller interprets the status. A call that produces no
// response at all fails with an error wrapping model.ErrNetwork and is never retried.
func (r *RateLimitInvoker) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var last *http.Response
	for attempt := 1; ; attempt++ {
		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := r.inner.Do(attemptReq)
		if err != nil {
			if last != nil && ctx.Err() != nil {
				return last, nil
			}
			return nil, fmt.Errorf("%w: %v", model.ErrNetwork, err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		last, err = buffer(resp)
		if err != nil {
			return nil, fmt.Errorf("%w: read rate-limited response: %v", model.ErrNetwork, err)
		}

		if attempt >= r.maxAttempts {
			r.logger.Warn("rate limited, retries exhausted",
				"attempts", attempt,
				"url", req.URL.String(),
			)
			return last, nil
		}

		// Cancellation is checked before the wait and ends it early; either
		// way the request is treated as out of retries.
		if ctx.Err() != nil {
			return last, nil
		}

		delay := time.Duration(attempt) * r.backoff
		r.logger.Warn("rate limited, backing off",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"delay", delay,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return last, nil
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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

// rewind returns a request whose body can be sent again.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("retry %s: request body cannot be replayed", req.URL)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("retry %s: %w", req.URL, err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// buffer reads and closes resp.Body so the response stays usable after the
// connection is released.
func buffer(resp *http.Response) (*http.Response, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return resp, nil
}
