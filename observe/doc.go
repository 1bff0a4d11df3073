// Package observe provides telemetry for the resilience layer: structured
// logging, OpenTelemetry tracing, and metrics for model-provider calls.
//
// An Observer bundles the three concerns behind one configuration:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "chat-backend",
//	    Version:     "1.0.0",
//	    Tracing:     observe.TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 0.1},
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//
// Middleware wraps a provider call with a span, a duration histogram, and
// a structured log line per call:
//
//	mw, _ := observe.MiddlewareFromObserver(obs)
//	call := mw.Wrap(func(ctx context.Context, meta observe.CallMeta) error {
//	    return client.Chat(ctx, prompt)
//	})
//	err = call(ctx, observe.CallMeta{Provider: "openai", Operation: "chat", Model: "gpt-4o"})
//
// Prompt and completion bodies are redacted from log fields; see
// RedactedFields.
package observe
