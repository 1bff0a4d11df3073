package stream

import (
	"context"
	"io"
	"time"

	"github.com/chatstack/llmguard/observe"
)

// Stream is a finite, forward-only sequence of text chunks from an
// already-started model response. Recv returns io.EOF when the sequence
// ends and any other error if the underlying stream fails mid-sequence.
// A Stream is consumed by a single reader.
type Stream interface {
	Recv() (string, error)
}

// GuardConfig configures the stream guard.
type GuardConfig struct {
	// InterChunkTimeout is the gap between successive chunks above which
	// a warning is logged. Slow chunks are tolerated, not terminated.
	// Default: 5 seconds
	InterChunkTimeout time.Duration

	// MaxTotalDuration is the ceiling on total stream time. Once elapsed
	// time exceeds it, the guard stops re-emitting chunks (a silent
	// truncation, not an error).
	// Default: 45 seconds
	MaxTotalDuration time.Duration

	// WindowSize caps the rolling metrics window. The entry with the
	// oldest timestamp is evicted first.
	// Default: 100
	WindowSize int

	// Meta is attached to telemetry emitted for supervised streams.
	Meta observe.CallMeta

	// Logger receives slow-chunk warnings and completion logs.
	// Default: discard.
	Logger observe.Logger

	// Metrics, when set, receives one throughput sample per completed
	// stream.
	Metrics observe.Metrics
}

// Guard supervises streaming responses, enforcing a total-duration
// ceiling, warning on slow chunks, and recording throughput metrics.
// One instance is shared across all requests for the process lifetime.
type Guard struct {
	config GuardConfig
	window *metricsWindow
	now    func() time.Time
}

// NewGuard creates a new stream guard.
func NewGuard(config GuardConfig) *Guard {
	// Apply defaults
	if config.InterChunkTimeout <= 0 {
		config.InterChunkTimeout = 5 * time.Second
	}
	if config.MaxTotalDuration <= 0 {
		config.MaxTotalDuration = 45 * time.Second
	}
	if config.WindowSize <= 0 {
		config.WindowSize = 100
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}

	return &Guard{
		config: config,
		window: newMetricsWindow(config.WindowSize),
		now:    time.Now,
	}
}

// Config returns the guard configuration.
func (g *Guard) Config() GuardConfig {
	return g.config
}

// Supervise wraps an already-started stream. The returned stream
// re-emits every chunk transparently until the source ends, fails, or
// the total-duration ceiling is reached. Exactly one metrics record is
// stored per supervised stream, keyed by operationID, whichever way the
// stream ends; a mid-stream error is returned to the caller unchanged
// after metrics are recorded.
func (g *Guard) Supervise(ctx context.Context, s Stream, operationID string) Stream {
	start := g.now()
	return &guardedStream{
		guard:       g,
		ctx:         ctx,
		source:      s,
		operationID: operationID,
		start:       start,
		lastChunk:   start,
	}
}

// guardedStream is the supervising wrapper returned by Supervise.
// It is single-consumer, like the stream it wraps.
type guardedStream struct {
	guard       *Guard
	ctx         context.Context
	source      Stream
	operationID string

	start      time.Time
	lastChunk  time.Time
	chunkCount int
	totalChars int

	done    bool
	doneErr error
}

// Recv returns the next chunk from the underlying stream.
func (s *guardedStream) Recv() (string, error) {
	if s.done {
		return "", s.doneErr
	}

	g := s.guard
	cfg := g.config

	if err := s.ctx.Err(); err != nil {
		return "", s.finish(err)
	}

	// Total duration is the hard cutoff: stop re-emitting, no error.
	if g.now().Sub(s.start) > cfg.MaxTotalDuration {
		total := g.now().Sub(s.start)
		cfg.Logger.Error(s.ctx, "max response time exceeded, truncating stream",
			observe.Field{Key: "operation_id", Value: s.operationID},
			observe.Field{Key: "total_time_ms", Value: total.Milliseconds()},
		)
		return "", s.finishTruncated()
	}

	chunk, err := s.source.Recv()
	if err != nil {
		if err == io.EOF {
			return "", s.finish(io.EOF)
		}
		cfg.Logger.Error(s.ctx, "stream failed",
			observe.Field{Key: "operation_id", Value: s.operationID},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return "", s.finish(err)
	}

	now := g.now()

	// Transient slow chunks are tolerated and only logged.
	if gap := now.Sub(s.lastChunk); gap > cfg.InterChunkTimeout {
		cfg.Logger.Warn(s.ctx, "slow chunk",
			observe.Field{Key: "operation_id", Value: s.operationID},
			observe.Field{Key: "gap_ms", Value: gap.Milliseconds()},
		)
	}

	s.chunkCount++
	s.totalChars += len(chunk)
	s.lastChunk = now

	return chunk, nil
}

// finish records metrics exactly once and latches the terminal error.
func (s *guardedStream) finish(err error) error {
	s.done = true
	s.doneErr = err
	s.guard.record(s.ctx, s.operationID, s.guard.now().Sub(s.start), s.chunkCount, s.totalChars, false)
	return err
}

func (s *guardedStream) finishTruncated() error {
	s.done = true
	s.doneErr = io.EOF
	s.guard.record(s.ctx, s.operationID, s.guard.now().Sub(s.start), s.chunkCount, s.totalChars, true)
	return io.EOF
}

// sliceStream adapts a fixed chunk list to the Stream interface.
type sliceStream struct {
	chunks []string
	pos    int
}

// FromSlice returns a Stream over the given chunks.
func FromSlice(chunks []string) Stream {
	return &sliceStream{chunks: chunks}
}

func (s *sliceStream) Recv() (string, error) {
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// chanStream adapts a channel of chunks to the Stream interface. The
// stream ends when the channel is closed.
type chanStream struct {
	ch <-chan string
}

// FromChannel returns a Stream that reads chunks from ch until it is
// closed.
func FromChannel(ch <-chan string) Stream {
	return &chanStream{ch: ch}
}

func (s *chanStream) Recv() (string, error) {
	chunk, ok := <-s.ch
	if !ok {
		return "", io.EOF
	}
	return chunk, nil
}

// Collect drains a stream into a single string slice. It stops at the
// first error; io.EOF is reported as a clean end.
func Collect(s Stream) ([]string, error) {
	var chunks []string
	for {
		chunk, err := s.Recv()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
}
