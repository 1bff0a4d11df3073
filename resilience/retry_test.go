package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func transientErr() error {
	return &ProviderError{Kind: KindRateLimit, Status: 429, Message: "rate limited"}
}

func fatalErr() error {
	return &ProviderError{Kind: KindInvalidRequest, Status: 400, Message: "bad prompt"}
}

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", r.config.MaxRetries)
	}
	if r.config.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", r.config.InitialDelay)
	}
	if r.config.MaxDelay != 60*time.Second {
		t.Errorf("MaxDelay = %v, want 60s", r.config.MaxDelay)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", r.config.Multiplier)
	}
	if r.config.RetryIf == nil {
		t.Error("RetryIf not defaulted")
	}
}

func TestRetry_SucceedsFirstTry(t *testing.T) {
	r := NewRetry(RetryConfig{})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	})

	attempts := 0
	lastErr := errors.New("sentinel")
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 4 {
			return &ProviderError{Kind: KindTimeout, Err: lastErr}
		}
		return transientErr()
	})

	// maxRetries = 3 means 4 tries total
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}

	// The 4th failure's error is what surfaces, unchanged
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindTimeout {
		t.Errorf("Execute() = %v, want the final timeout error", err)
	}
	if !errors.Is(err, lastErr) {
		t.Error("Execute() did not preserve the last error chain")
	}
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return fatalErr()
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}

	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindInvalidRequest {
		t.Errorf("Execute() = %v, want the original fatal error", err)
	}
}

func TestRetry_RecoversAfterTransientFailures(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return transientErr()
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ExponentialDelays(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	})

	// 0-indexed attempts: 1s, 2s, 4s
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := r.calculateDelay(i); got != w {
			t.Errorf("calculateDelay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestRetry_DelayCappedAtMax(t *testing.T) {
	r := NewRetry(RetryConfig{
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	})

	if got := r.calculateDelay(10); got != 5*time.Second {
		t.Errorf("calculateDelay(10) = %v, want capped 5s", got)
	}
}

func TestRetry_JitterBounds(t *testing.T) {
	r := NewRetry(RetryConfig{
		InitialDelay: 4 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	})

	// ±25% of 4s: [3s, 5s]
	for i := 0; i < 100; i++ {
		got := r.calculateDelay(0)
		if got < 3*time.Second || got > 5*time.Second {
			t.Fatalf("calculateDelay(0) with jitter = %v, want within [3s, 5s]", got)
		}
	}
}

func TestRetry_DelayFloor(t *testing.T) {
	r := NewRetry(RetryConfig{
		InitialDelay: time.Millisecond,
		Jitter:       true,
	})

	for i := 0; i < 100; i++ {
		if got := r.calculateDelay(0); got < MinDelay {
			t.Fatalf("calculateDelay(0) = %v, want >= %v", got, MinDelay)
		}
	}
}

func TestRetry_DelaysObservable(t *testing.T) {
	var delays []time.Duration
	var attempts []int

	r := NewRetry(RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
			delays = append(delays, delay)
		},
	})

	r.Execute(context.Background(), func(ctx context.Context) error {
		return transientErr()
	})

	if len(delays) != 2 {
		t.Fatalf("OnRetry called %d times, want 2", len(delays))
	}
	if attempts[0] != 0 || attempts[1] != 1 {
		t.Errorf("attempt indices = %v, want [0 1]", attempts)
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] < delays[i-1] {
			t.Errorf("delays not monotone: %v", delays)
		}
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(ctx context.Context) error {
			attempts++
			return transientErr()
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Execute() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute() did not return after cancellation")
	}

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoRetry(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	result, err := DoRetry(context.Background(), r, func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, transientErr()
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("DoRetry() error = %v", err)
	}
	if result != 42 {
		t.Errorf("DoRetry() = %d, want 42", result)
	}
}
