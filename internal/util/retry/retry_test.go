package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := WithExponentialBackoff(context.Background(), operation)

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := WithExponentialBackoff(context.Background(), operation, WithInitialDelay(10*time.Millisecond))

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("persistent error")
	}

	err := WithExponentialBackoff(context.Background(), operation,
		WithMaxRetries(2), WithInitialDelay(time.Millisecond))

	if err == nil {
		t.Error("Expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts (1 initial + 2 retries), got: %d", attempts)
	}
}

func TestWithExponentialBackoff_FatalNotRetried(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return Fatal(errors.New("invalid parameter"))
	}

	err := WithExponentialBackoff(context.Background(), operation, WithInitialDelay(time.Millisecond))

	if err == nil {
		t.Error("Expected fatal error to propagate")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for fatal error, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error { return errors.New("nope") },
		WithInitialDelay(time.Hour))

	if err == nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation error, got: %v", err)
	}
}

func TestPoll_ImmediateSuccess(t *testing.T) {
	t.Parallel()
	checks := 0
	err := Poll(context.Background(), time.Hour, 3, func() (bool, error) {
		checks++
		return true, nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if checks != 1 {
		t.Errorf("Expected 1 check, got: %d", checks)
	}
}

func TestPoll_SuccessAfterChecks(t *testing.T) {
	t.Parallel()
	checks := 0
	err := Poll(context.Background(), time.Millisecond, 10, func() (bool, error) {
		checks++
		return checks >= 4, nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if checks != 4 {
		t.Errorf("Expected 4 checks, got: %d", checks)
	}
}

func TestPoll_AttemptsExhausted(t *testing.T) {
	t.Parallel()
	err := Poll(context.Background(), time.Millisecond, 3, func() (bool, error) {
		return false, nil
	})

	if err == nil {
		t.Error("Expected error when attempts are exhausted")
	}
}

func TestPoll_ConditionError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	err := Poll(context.Background(), time.Millisecond, 3, func() (bool, error) {
		return false, boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("Expected condition error to propagate, got: %v", err)
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Poll(ctx, time.Hour, 5, func() (bool, error) { return false, nil })

	if err == nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation error, got: %v", err)
	}
}
