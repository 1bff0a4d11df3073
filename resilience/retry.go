package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/chatstack/llmguard/observe"
)

// MinDelay is the floor applied to every computed backoff delay.
const MinDelay = 100 * time.Millisecond

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt,
	// so an operation is tried at most MaxRetries+1 times.
	// Default: 3
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	// Default: 1 second
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries, before jitter.
	// Default: 60s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64

	// Jitter perturbs delays by up to 25% in either direction to prevent
	// synchronized retry storms across callers.
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: IsTransient.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Logger receives a warning per retry attempt. Default: discard.
	Logger observe.Logger
}

// Retry retries a single unit of work on transient failure with
// exponential backoff. It holds no mutable state and is safe for
// concurrent use.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = IsTransient
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	return &Retry{config: config}
}

// Execute runs the operation, retrying transient failures. Non-retryable
// errors propagate immediately; after MaxRetries exhausted retries the
// last observed error is returned unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op(ctx)

		if err == nil {
			return nil
		}

		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}

		if attempt >= r.config.MaxRetries {
			break
		}

		delay := r.calculateDelay(attempt)

		r.config.Logger.Warn(ctx, "retrying provider call",
			observe.Field{Key: "attempt", Value: attempt + 1},
			observe.Field{Key: "max_retries", Value: r.config.MaxRetries},
			observe.Field{Key: "error_kind", Value: Classify(err).String()},
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
		)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		// Wait for delay or context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next attempt
		}
	}

	r.config.Logger.Error(ctx, "provider call failed, retries exhausted",
		observe.Field{Key: "attempts", Value: r.config.MaxRetries + 1},
		observe.Field{Key: "error_kind", Value: Classify(lastErr).String()},
		observe.Field{Key: "error", Value: lastErr.Error()},
	)

	return lastErr
}

// DoRetry runs an operation returning a value with retry logic.
func DoRetry[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// calculateDelay computes the backoff delay for a 0-indexed attempt:
// min(InitialDelay*Multiplier^attempt, MaxDelay), perturbed by up to
// ±25% when jitter is enabled, never below MinDelay.
func (r *Retry) calculateDelay(attempt int) time.Duration {
	multiplier := math.Pow(r.config.Multiplier, float64(attempt))
	delay := time.Duration(float64(r.config.InitialDelay) * multiplier)

	if delay > r.config.MaxDelay || delay <= 0 {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		jitter := (rand.Float64() - 0.5) * 0.5 * float64(delay)
		delay = time.Duration(float64(delay) + jitter)
	}

	if delay < MinDelay {
		delay = MinDelay
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
