package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StreamSample summarizes one supervised streaming response.
type StreamSample struct {
	Chunks    int
	Chars     int
	Duration  time.Duration
	Truncated bool
}

// Metrics records telemetry for model-provider calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a provider call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordStream records throughput for one completed streaming response.
	RecordStream(ctx context.Context, meta CallMeta, sample StreamSample)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter          metric.Meter
	callCount      metric.Int64Counter
	errorCount     metric.Int64Counter
	durationHist   metric.Float64Histogram
	chunkCount     metric.Int64Counter
	charCount      metric.Int64Counter
	truncatedCount metric.Int64Counter
	throughputHist metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	callCount, err := meter.Int64Counter(
		"llm.call.total",
		metric.WithDescription("Total number of provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"llm.call.errors",
		metric.WithDescription("Total number of failed provider calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"llm.call.duration_ms",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	chunkCount, err := meter.Int64Counter(
		"llm.stream.chunks",
		metric.WithDescription("Total number of streamed chunks delivered"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, err
	}

	charCount, err := meter.Int64Counter(
		"llm.stream.chars",
		metric.WithDescription("Total number of streamed characters delivered"),
		metric.WithUnit("{char}"),
	)
	if err != nil {
		return nil, err
	}

	truncatedCount, err := meter.Int64Counter(
		"llm.stream.truncated",
		metric.WithDescription("Streams cut off at the total-duration ceiling"),
		metric.WithUnit("{stream}"),
	)
	if err != nil {
		return nil, err
	}

	throughputHist, err := meter.Float64Histogram(
		"llm.stream.chars_per_second",
		metric.WithDescription("Streaming throughput in characters per second"),
		metric.WithUnit("{char}/s"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:          meter,
		callCount:      callCount,
		errorCount:     errorCount,
		durationHist:   durationHist,
		chunkCount:     chunkCount,
		charCount:      charCount,
		truncatedCount: truncatedCount,
		throughputHist: throughputHist,
	}, nil
}

func callAttrs(meta CallMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("llm.provider", meta.Provider),
		attribute.String("llm.operation", meta.Operation),
	}
	if meta.Model != "" {
		attrs = append(attrs, attribute.String("llm.model", meta.Model))
	}
	return metric.WithAttributes(attrs...)
}

// RecordCall records metrics for a provider call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := callAttrs(meta)

	m.callCount.Add(ctx, 1, opt)

	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordStream records throughput metrics for a completed stream.
func (m *metricsImpl) RecordStream(ctx context.Context, meta CallMeta, sample StreamSample) {
	opt := callAttrs(meta)

	m.chunkCount.Add(ctx, int64(sample.Chunks), opt)
	m.charCount.Add(ctx, int64(sample.Chars), opt)

	if sample.Truncated {
		m.truncatedCount.Add(ctx, 1, opt)
	}

	if secs := sample.Duration.Seconds(); secs > 0 {
		m.throughputHist.Record(ctx, float64(sample.Chars)/secs, opt)
	}
}

// NewBreakerTransitionCounter returns a callback that counts circuit
// breaker state transitions on the llm.breaker.transitions instrument.
// The callback takes state names so callers can adapt it to their
// breaker's OnStateChange hook without an import cycle.
func NewBreakerTransitionCounter(meter metric.Meter, meta CallMeta) (func(from, to string), error) {
	counter, err := meter.Int64Counter(
		"llm.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return func(from, to string) {
		counter.Add(context.Background(), 1,
			callAttrs(meta),
			metric.WithAttributes(
				attribute.String("llm.breaker.from", from),
				attribute.String("llm.breaker.to", to),
			),
		)
	}, nil
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordCall(context.Context, CallMeta, time.Duration, error) {}
func (noopMetrics) RecordStream(context.Context, CallMeta, StreamSample)       {}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics {
	return noopMetrics{}
}
