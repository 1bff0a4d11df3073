package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	m, err := newMetrics(meter)
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}

	meta := CallMeta{Provider: "openai", Operation: "chat", Model: "gpt-4o"}

	// Recording must be safe on both paths
	m.RecordCall(context.Background(), meta, 150*time.Millisecond, nil)
	m.RecordCall(context.Background(), meta, 150*time.Millisecond, context.DeadlineExceeded)

	m.RecordStream(context.Background(), meta, StreamSample{
		Chunks:   12,
		Chars:    480,
		Duration: 2 * time.Second,
	})
	m.RecordStream(context.Background(), meta, StreamSample{Truncated: true})
}

func TestNewBreakerTransitionCounter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	onChange, err := NewBreakerTransitionCounter(meter, CallMeta{Provider: "openai", Operation: "chat"})
	if err != nil {
		t.Fatalf("NewBreakerTransitionCounter() error = %v", err)
	}

	onChange("closed", "open")
	onChange("open", "half-open")
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	m.RecordCall(context.Background(), CallMeta{}, time.Second, nil)
	m.RecordStream(context.Background(), CallMeta{}, StreamSample{})
}
