package fetch

import (
	"context"
	"time"
)

// retryableStatuses are the HTTP statuses worth another attempt. 403 and 429
// show up constantly on grant portals fronted by anti-bot layers and often
// clear on a later attempt.
var retryableStatuses = map[int]struct{}{
	403: {},
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
}

// RetryPolicy decides whether an attempt should be repeated and how long to
// wait before doing so.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewRetryPolicy builds a policy. Values <= 0 fall back to the defaults.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// RetryableStatus reports whether the HTTP status is transient.
func (p RetryPolicy) RetryableStatus(status int) bool {
	_, ok := retryableStatuses[status]
	return ok
}

// Backoff returns the wait before the given 1-based attempt number retries.
// Growth is linear: base, 2*base, 3*base.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(attempt)
}

// pause sleeps for delay unless the context finishes first.
func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
