package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewExecutor(t *testing.T) {
	e := NewExecutor()

	if e.circuitBreaker != nil {
		t.Error("Default executor should not have circuit breaker")
	}
	if e.retry != nil {
		t.Error("Default executor should not have retry")
	}
	if e.rateLimiter != nil {
		t.Error("Default executor should not have rate limiter")
	}
	if e.bulkhead != nil {
		t.Error("Default executor should not have bulkhead")
	}
}

func TestExecutor_WithOptions(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	retry := NewRetry(RetryConfig{})
	rl := NewRateLimiter(RateLimiterConfig{})
	b := NewBulkhead(BulkheadConfig{})

	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(retry),
		WithRateLimiter(rl),
		WithBulkhead(b),
	)

	if e.circuitBreaker != cb {
		t.Error("CircuitBreaker not set")
	}
	if e.retry != retry {
		t.Error("Retry not set")
	}
	if e.rateLimiter != rl {
		t.Error("RateLimiter not set")
	}
	if e.bulkhead != b {
		t.Error("Bulkhead not set")
	}
}

func TestExecutor_ExecuteNoPatterns(t *testing.T) {
	e := NewExecutor()

	executed := false
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}
	if !executed {
		t.Error("Operation was not executed")
	}
}

func TestExecutor_RetryWrapsBreaker(t *testing.T) {
	// Breaker opens after 2 failures; retry makes 3 tries. The third try
	// must be rejected locally by the now-open breaker without reaching
	// the operation.
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
	})
	retry := NewRetry(RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return true },
	})

	e := NewExecutor(WithCircuitBreaker(cb), WithRetry(retry))

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return &ProviderError{Kind: KindServer}
	})

	if attempts != 2 {
		t.Errorf("operation attempts = %d, want 2 (third rejected by open breaker)", attempts)
	}
	if err != ErrCircuitOpen {
		t.Errorf("Execute() = %v, want ErrCircuitOpen", err)
	}
}

func TestExecutor_BreakerRejectionNotRetried(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
	})
	// Trip the breaker
	cb.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})

	retry := NewRetry(RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	})

	e := NewExecutor(WithCircuitBreaker(cb), WithRetry(retry))

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	// Circuit rejection is local and not a transient provider failure
	if attempts != 0 {
		t.Errorf("operation attempts = %d, want 0", attempts)
	}
	if err != ErrCircuitOpen {
		t.Errorf("Execute() = %v, want ErrCircuitOpen", err)
	}
}

func TestExecutor_RateLimiterOutermost(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})
	retry := NewRetry(RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond})

	e := NewExecutor(WithRateLimiter(rl), WithRetry(retry))

	// Drain the burst token
	if err := e.Execute(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	// Rejected before retry or the operation ever run
	if err != ErrRateLimited {
		t.Errorf("Execute() = %v, want ErrRateLimited", err)
	}
	if attempts != 0 {
		t.Errorf("operation attempts = %d, want 0", attempts)
	}
}

func TestRun(t *testing.T) {
	retry := NewRetry(RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond})
	e := NewExecutor(WithRetry(retry))

	attempts := 0
	result, err := Run(context.Background(), e, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", &ProviderError{Kind: KindConnection}
		}
		return "reply", nil
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "reply" {
		t.Errorf("Run() = %q, want %q", result, "reply")
	}
}
