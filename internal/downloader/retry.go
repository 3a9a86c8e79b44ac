package downloader

import (
	"context"
	"errors"
	"net"
	"time"
)

// LinearRetryPolicy retries timed-out fetches with linearly increasing
// backoff. Non-timeout failures are never retried: an HTTP error status or
// a broken image will not get better on a second attempt.
type LinearRetryPolicy struct {
	maxAttempts int
	step        time.Duration
}

// NewLinearRetryPolicy builds a policy; attempt n waits n*step before the
// next try.
func NewLinearRetryPolicy(maxAttempts int, step time.Duration) *LinearRetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if step <= 0 {
		step = 5 * time.Second
	}
	return &LinearRetryPolicy{
		maxAttempts: maxAttempts,
		step:        step,
	}
}

// MaxAttempts returns the total attempt budget per task.
func (p *LinearRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether the error is retryable.
func (p *LinearRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return isTimeout(err)
}

// Backoff returns the wait duration after the given attempt number.
func (p *LinearRetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.step
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
