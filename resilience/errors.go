package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrCallTimeout is returned when a call exceeds the breaker's call timeout.
	ErrCallTimeout = errors.New("resilience: call timed out")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrRateLimited is returned when the client-side rate limiter rejects a call.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")
)

// Kind classifies a failure from the model provider.
type Kind int

const (
	// KindUnknown is a failure that could not be classified.
	KindUnknown Kind = iota
	// KindRateLimit is a provider-side rate limit (HTTP 429 equivalent).
	KindRateLimit
	// KindTimeout is a request that exceeded its deadline.
	KindTimeout
	// KindConnection is a network-level failure reaching the provider.
	KindConnection
	// KindServer is a provider-side internal error (HTTP 5xx equivalent).
	KindServer
	// KindInvalidRequest is a malformed or rejected request. Never retried.
	KindInvalidRequest
	// KindAuth is an authentication or authorization failure. Never retried.
	KindAuth
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindServer:
		return "server"
	case KindInvalidRequest:
		return "invalid_request"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// ProviderError wraps a failure reported by the model provider with its
// classification. The provider client is expected to construct these; the
// resilience layer only reads the Kind.
type ProviderError struct {
	Kind    Kind
	Status  int // HTTP status if known, 0 otherwise
	Message string
	Err     error // underlying error, may be nil
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("provider error (%s)", e.Kind)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Classify determines the failure kind of an error. Classification prefers
// an explicit ProviderError anywhere in the chain, then falls back to
// well-known error shapes (deadlines, net errors).
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, ErrCallTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}

	return KindUnknown
}

// IsTransient reports whether an error is expected to resolve itself on
// retry. This is the default retry predicate.
func IsTransient(err error) bool {
	switch Classify(err) {
	case KindRateLimit, KindTimeout, KindConnection, KindServer:
		return true
	default:
		return false
	}
}
