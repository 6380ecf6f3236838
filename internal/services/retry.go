package services

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// RetryPolicy retries an operation with exponential backoff. All external
// calls share this policy so retry behavior is tuned in one place.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
}

// RetryOption customizes a RetryPolicy.
type RetryOption func(*RetryPolicy)

// WithRetryMaxAttempts overrides the attempt count (defaults to 5).
func WithRetryMaxAttempts(attempts int) RetryOption {
	return func(p *RetryPolicy) {
		p.maxAttempts = attempts
	}
}

// WithRetryBackoff overrides the backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) RetryOption {
	return func(p *RetryPolicy) {
		p.baseDelay = baseDelay
		p.maxDelay = maxDelay
	}
}

// WithRetrySleeper overrides how retry sleeps are performed (useful for
// tests).
func WithRetrySleeper(sleeper func(time.Duration)) RetryOption {
	return func(p *RetryPolicy) {
		p.sleeper = sleeper
	}
}

// NewRetryPolicy builds a policy with the default tuning.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	policy := &RetryPolicy{
		maxAttempts: defaultRetryAttempts,
		baseDelay:   defaultRetryBaseDelay,
		maxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(policy)
	}
	if policy.maxAttempts < 1 {
		policy.maxAttempts = 1
	}
	return policy
}

// Do runs fn until it succeeds, returns a permanent error, the attempts are
// exhausted, or the context ends.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, p.maxAttempts, lastErr)
}

func (p *RetryPolicy) delay(attempt int) time.Duration {
	delay := p.baseDelay << (attempt - 1)
	if delay > p.maxDelay || delay <= 0 {
		delay = p.maxDelay
	}
	return delay
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.sleeper != nil {
		p.sleeper(d)
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
