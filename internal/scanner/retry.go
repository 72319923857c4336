package scanner

import (
	"context"
	"time"
)

// RetryPolicy bounds retries of transient faults with exponential
// backoff. Attempt counting starts at zero for the first failure.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries up to three attempts starting at a two
// second delay, doubling each time.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Retryable:   retryable,
	}
}

// Next reports whether a failed attempt should be retried and after what
// delay. Fatal errors and exhausted budgets give up immediately.
func (p RetryPolicy) Next(attempt int, err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	if p.Retryable != nil && !p.Retryable(err) {
		return 0, false
	}
	if attempt >= p.MaxAttempts-1 {
		return 0, false
	}

	delay := p.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay, true
}

// withRetry runs fn under the policy. The backoff sleep is a cancellation
// point: a context cancelled mid-backoff returns ctx.Err immediately.
func withRetry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		delay, retry := policy.Next(attempt, err)
		if !retry {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
