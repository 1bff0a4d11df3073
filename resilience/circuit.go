package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/chatstack/llmguard/observe"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the provider recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	// Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long to wait before attempting recovery.
	// Default: 60 seconds
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of successes in half-open state
	// required to close the circuit.
	// Default: 3
	SuccessThreshold int

	// CallTimeout is the hard deadline for each wrapped call. A call that
	// overruns it is abandoned and counted as a failure.
	// Default: 30 seconds
	CallTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Logger receives state transition logs. Default: discard.
	Logger observe.Logger
}

// CircuitBreaker tracks the aggregate health of the model provider and
// fails fast when the provider is deemed down. One instance is shared by
// all callers of the same provider.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs the operation through the circuit breaker under the
// configured call timeout. When the circuit is open and the recovery
// window has not elapsed, it returns ErrCircuitOpen without invoking op.
// An op overrunning CallTimeout is abandoned, its result discarded, and
// the call fails with ErrCallTimeout.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeRequest(ctx); err != nil {
		return err
	}

	err := cb.runWithDeadline(ctx, op)
	cb.afterRequest(ctx, err)
	return err
}

// Do runs an operation returning a value through the circuit breaker.
func Do[T any](ctx context.Context, cb *CircuitBreaker, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func(ctx context.Context) error {
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

// BreakerSnapshot is a read-only view of the breaker for monitoring.
type BreakerSnapshot struct {
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}

// Snapshot returns the current breaker state and counters.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerSnapshot{
		State:       cb.state,
		Failures:    cb.failures,
		Successes:   cb.successes,
		LastFailure: cb.lastFailure,
	}
}

// State returns the current circuit state, applying the open-to-half-open
// transition if the recovery window has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked(context.Background())
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0

	if oldState != StateClosed {
		cb.notify(oldState, StateClosed)
	}
}

func (cb *CircuitBreaker) runWithDeadline(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, cb.config.CallTimeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrCallTimeout
		}
		return ctx.Err()
	}
}

func (cb *CircuitBreaker) beforeRequest(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.currentStateLocked(ctx) == StateOpen {
		return ErrCircuitOpen
	}

	return nil
}

func (cb *CircuitBreaker) afterRequest(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	isFailure := cb.config.IsFailure(err)
	oldState := cb.state

	switch cb.state {
	case StateClosed:
		if isFailure {
			cb.failures++
			cb.lastFailure = time.Now()
			if cb.failures >= cb.config.FailureThreshold {
				cb.state = StateOpen
				cb.config.Logger.Error(ctx, "circuit breaker opened",
					observe.Field{Key: "failures", Value: cb.failures},
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
		} else {
			// Reset failure count on success
			cb.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Failed during probe, go back to open
			cb.lastFailure = time.Now() // Restart the recovery window
			cb.state = StateOpen
			cb.config.Logger.Warn(ctx, "circuit breaker reopened, provider still failing")
		} else {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.state = StateClosed
				cb.failures = 0
				cb.config.Logger.Info(ctx, "circuit breaker closed, provider recovered")
			}
		}
	}

	if oldState != cb.state {
		cb.notify(oldState, cb.state)
	}
}

func (cb *CircuitBreaker) currentStateLocked(ctx context.Context) State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.RecoveryTimeout {
		cb.state = StateHalfOpen
		cb.successes = 0
		cb.config.Logger.Info(ctx, "circuit breaker half-open, probing provider")
		cb.notify(StateOpen, StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
