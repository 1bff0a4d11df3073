package health

import (
	"context"

	"github.com/chatstack/llmguard/resilience"
)

// BreakerChecker reports the health of the model provider as seen by a
// circuit breaker: closed is healthy, half-open is degraded (a probe is
// in flight), open is unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker over a shared circuit breaker.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name returns the name of this checker.
func (c *BreakerChecker) Name() string {
	return c.name
}

// Check reports the breaker state with its counters as details.
func (c *BreakerChecker) Check(_ context.Context) Result {
	snap := c.breaker.Snapshot()

	details := map[string]any{
		"state":    snap.State.String(),
		"failures": snap.Failures,
	}
	if !snap.LastFailure.IsZero() {
		details["last_failure"] = snap.LastFailure
	}

	switch snap.State {
	case resilience.StateOpen:
		return Unhealthy("circuit open, provider deemed down", resilience.ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		details["successes"] = snap.Successes
		return Degraded("circuit half-open, probing provider").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}
