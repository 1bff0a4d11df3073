// Package resilience wraps calls to a hosted language-model provider with
// failure-handling policies.
//
// The remote provider is unreliable: it rate-limits, drops connections,
// and sometimes hangs. This package keeps those failures from cascading
// into the application by composing independent policies around each call.
//
// # Patterns
//
//   - Circuit Breaker: Tracks aggregate provider health across all callers
//     and fails fast with ErrCircuitOpen while the provider is deemed down.
//     Each admitted call runs under a hard deadline.
//
//   - Retry: Retries transient failures (rate limits, timeouts, connection
//     errors, provider 5xx) with exponential backoff and jitter. Fatal
//     errors such as invalid requests or auth failures are never retried.
//
//   - Rate Limiter: Throttles outbound calls to stay under the provider's
//     published limits.
//
//   - Bulkhead: Bounds the number of in-flight provider calls.
//
// # Usage
//
// Each pattern can be used independently or composed together. One
// instance of each is normally shared process-wide so every caller
// observes the same aggregate health of the provider:
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    RecoveryTimeout:  time.Minute,
//	    SuccessThreshold: 3,
//	    CallTimeout:      30 * time.Second,
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxRetries:   3,
//	    InitialDelay: time.Second,
//	    MaxDelay:     time.Minute,
//	    Multiplier:   2.0,
//	    Jitter:       true,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	)
//
//	reply, err := resilience.Run(ctx, executor, func(ctx context.Context) (string, error) {
//	    return callModelProvider(ctx, prompt)
//	})
//
// For streaming responses, apply the executor to obtaining the stream
// handle only, then supervise consumption with the stream package.
package resilience
