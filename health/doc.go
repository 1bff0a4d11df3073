// Package health exposes the resilience layer's view of the model
// provider to monitoring endpoints.
//
// BreakerChecker reports circuit breaker state (closed, half-open, open)
// and StreamChecker reports the stream guard's performance grade. An
// Aggregator combines checkers and backs the liveness/readiness/detailed
// HTTP handlers:
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(health.NewBreakerChecker("provider", breaker))
//	agg.Register(health.NewStreamChecker("streaming", guard))
//
//	mux.HandleFunc("/health/live", health.LivenessHandler())
//	mux.HandleFunc("/health/ready", health.ReadinessHandler(agg))
//	mux.HandleFunc("/health", health.DetailedHandler(agg))
package health
