package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"livelens/internal/services"
)

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	var slept []time.Duration
	policy := services.NewRetryPolicy(
		services.WithRetryMaxAttempts(4),
		services.WithRetryBackoff(time.Second, 4*time.Second),
		services.WithRetrySleeper(func(d time.Duration) { slept = append(slept, d) }),
	)

	calls := 0
	err := policy.Do(context.Background(), "vision", func(context.Context) error {
		calls++
		if calls < 3 {
			return services.Wrap(services.ErrExternalAPI, "analyze", "vision", "", errors.New("429"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("unexpected backoff %v", slept)
	}
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	policy := services.NewRetryPolicy(
		services.WithRetrySleeper(func(time.Duration) {}),
	)

	calls := 0
	wantErr := services.Wrap(services.ErrValidation, "analyze", "", "missing video id", nil)
	err := policy.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent error must short-circuit, got %d calls", calls)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy := services.NewRetryPolicy(
		services.WithRetryMaxAttempts(3),
		services.WithRetrySleeper(func(time.Duration) {}),
	)

	calls := 0
	err := policy.Do(context.Background(), "embed", func(context.Context) error {
		calls++
		return services.ErrTransient
	})
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if err == nil || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := services.NewRetryPolicy(
		services.WithRetrySleeper(func(time.Duration) { cancel() }),
	)

	err := policy.Do(ctx, "op", func(context.Context) error {
		return services.ErrTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
