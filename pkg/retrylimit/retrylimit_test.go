package retrylimit

import (
	"context"
	"errors"
	"testing"
)

type httpErr struct{ code int }

func (e *httpErr) Error() string   { return "http error" }
func (e *httpErr) StatusCode() int { return e.code }

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, 5, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	want := errors.New("missing permissions")
	err := Do(context.Background(), nil, 5, func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Do = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (no retry on client errors)", calls)
	}
}

func TestDoRetriesRateLimit(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, 5, func() error {
		calls++
		if calls < 3 {
			return &httpErr{code: 429}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, 3, func() error {
		calls++
		return &httpErr{code: 502}
	})
	if err == nil {
		t.Fatal("Do should fail after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, nil, 3, func() error { return &httpErr{code: 429} })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do = %v, want context.Canceled", err)
	}
}

func TestAdaptiveLimiterAdjusts(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 1, 0.5)

	lim.Backoff()
	if got := lim.Limit(); got != 5 {
		t.Errorf("limit after backoff = %v, want 5", got)
	}

	lim.Backoff()
	lim.Backoff()
	lim.Backoff()
	lim.Backoff()
	if got := lim.Limit(); got < 1 {
		t.Errorf("limit fell below the floor: %v", got)
	}

	// Success within the error cooldown must not raise the rate.
	before := lim.Limit()
	lim.Success()
	if got := lim.Limit(); got != before {
		t.Errorf("limit rose during cooldown: %v -> %v", before, got)
	}
}
