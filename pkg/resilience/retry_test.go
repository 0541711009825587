package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test-op", RetryConfig{InitialDelay: time.Millisecond}, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test-op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test-op", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}, func() error {
		calls++
		return errBoom
	})
	if err == nil {
		t.Fatal("expected an error after exhausting all attempts")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("error = %v, want it to wrap the last failure", err)
	}
}

func TestRetryAbortsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, "test-op", RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func() error {
		calls++
		return errBoom
	})
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if calls >= 5 {
		t.Errorf("calls = %d, want fewer than the full attempt budget once cancelled", calls)
	}
}
