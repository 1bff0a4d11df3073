package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatstack/llmguard/resilience"
)

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  time.Minute,
	})

	ctx := context.Background()
	err := cb.Execute(ctx, func(ctx context.Context) error {
		// Call the model provider here
		return nil
	})

	if err == nil {
		fmt.Println("call succeeded")
	}
	// Output:
	// call succeeded
}

func ExampleCircuitBreaker_State() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
	})

	ctx := context.Background()

	fmt.Println("initial state:", cb.State())

	providerErr := errors.New("service unavailable")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			return providerErr
		})
	}

	fmt.Println("after failures:", cb.State())

	cb.Reset()
	fmt.Println("after reset:", cb.State())
	// Output:
	// initial state: closed
	// after failures: open
	// after reset: closed
}

func ExampleNewRetry() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return &resilience.ProviderError{Kind: resilience.KindRateLimit, Message: "slow down"}
		}
		return nil
	})

	fmt.Println("error:", err)
	fmt.Println("attempts:", attempts)
	// Output:
	// error: <nil>
	// attempts: 2
}

func ExampleExecutor() {
	exec := resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{InitialDelay: time.Millisecond})),
	)

	err := exec.Execute(context.Background(), func(ctx context.Context) error {
		// Call the model provider here
		return nil
	})

	fmt.Println("error:", err)
	// Output:
	// error: <nil>
}
