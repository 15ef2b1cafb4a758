package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestPacer_WaitsConfiguredDelay(t *testing.T) {
	p := NewPacer(100 * time.Millisecond)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow 80ms for timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestPacer_ZeroDelayReturnsImmediately(t *testing.T) {
	p := NewPacer(0)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant return, got %v", elapsed)
	}
}

func TestPacer_ContextCancellation(t *testing.T) {
	p := NewPacer(5 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type countingDoer struct {
	calls int
}

func (c *countingDoer) Do(_ *http.Request) (*http.Response, error) {
	c.calls++
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func TestThrottledDoer_NilLimiterPassesThrough(t *testing.T) {
	inner := &countingDoer{}
	d := NewThrottledDoer(inner, nil)

	req, _ := http.NewRequest(http.MethodGet, "https://classifier.example", nil)
	for i := 0; i < 3; i++ {
		if _, err := d.Do(req); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", inner.calls)
	}
}

func TestThrottledDoer_SpacesRequests(t *testing.T) {
	inner := &countingDoer{}
	// 600/min = one request every 100ms.
	d := NewThrottledDoer(inner, NewLimiter(600))

	req, _ := http.NewRequest(http.MethodGet, "https://classifier.example", nil)
	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := d.Do(req); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected second request to wait ~100ms, got %v", elapsed)
	}
}

func TestThrottledDoer_CancelledWhileWaiting(t *testing.T) {
	inner := &countingDoer{}
	d := NewThrottledDoer(inner, NewLimiter(1))

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://classifier.example", nil)
	if _, err := d.Do(req); err != nil {
		t.Fatalf("first Do: %v", err)
	}
	cancel()
	if _, err := d.Do(req); err == nil {
		t.Fatal("expected error when context is cancelled while throttled")
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestNewLimiter_DisabledForNonPositive(t *testing.T) {
	if NewLimiter(0) != nil || NewLimiter(-5) != nil {
		t.Fatal("expected nil limiter for non-positive rate")
	}
}
