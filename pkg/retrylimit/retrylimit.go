// Package retrylimit rate-limits and retries calls against an API that
// pushes back. The limiter adapts: it creeps up while calls succeed and backs
// off sharply when the server answers 429 or 5xx.
package retrylimit

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HTTPError is implemented by errors carrying an HTTP status code
// (discordgo's *RESTError qualifies via a small adapter).
type HTTPError interface {
	error
	StatusCode() int
}

// AdaptiveLimiter wraps rate.Limiter with success/failure feedback.
// Thread-safe.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	min, max  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
}

// NewAdaptiveLimiter creates a limiter starting at initial requests per
// second, bounded by [min, max]. stepUp is added after a quiet period of
// successes; stepDown multiplies the rate after a failure (e.g. 0.5 halves).
func NewAdaptiveLimiter(initial, min, max rate.Limit, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if initial < 1 {
		initial = 1
	}
	if min < 1 {
		min = 1
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, int(initial)),
		min:      min,
		max:      max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success nudges the rate up, but only after ten error-free seconds.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > 10*time.Second {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

// Backoff cuts the rate after the server pushed back.
func (a *AdaptiveLimiter) Backoff() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current requests per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(next rate.Limit) {
	if next > a.max {
		next = a.max
	}
	if next < a.min {
		next = a.min
	}
	if next != a.limiter.Limit() {
		a.limiter.SetLimit(next)
		burst := int(next)
		if burst < 1 {
			burst = 1
		}
		a.limiter.SetBurst(burst)
	}
}

// Do runs fn under the limiter, retrying up to maxAttempts times with
// exponential backoff and jitter. Rate-limit responses (429) shrink the
// limiter and retry quickly; other errors back off normally. A nil return
// from fn stops immediately.
func Do(ctx context.Context, lim *AdaptiveLimiter, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := 500 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}

		wait := delay
		if rateLimited(lastErr) {
			if lim != nil {
				lim.Backoff()
			}
			wait = 100 * time.Millisecond
		} else if serverError(lastErr) {
			if lim != nil {
				lim.Backoff()
			}
		} else {
			// Client errors (403, 404, ...) will not improve with retries.
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(wait)):
		}

		delay *= 2
		if delay > 10*time.Second {
			delay = 10 * time.Second
		}
	}

	return fmt.Errorf("retrylimit: %d attempts exhausted: %w", maxAttempts, lastErr)
}

// jitter adds up to 25% to prevent synchronized retries.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(d/4)+1))
}

func rateLimited(err error) bool {
	if httpErr, ok := err.(HTTPError); ok {
		return httpErr.StatusCode() == http.StatusTooManyRequests
	}
	return false
}

func serverError(err error) bool {
	if httpErr, ok := err.(HTTPError); ok {
		code := httpErr.StatusCode()
		return code >= 500 && code < 600
	}
	return false
}
