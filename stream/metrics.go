package stream

import (
	"context"
	"sync"
	"time"

	"github.com/chatstack/llmguard/observe"
)

// Record is the immutable metrics entry stored for one supervised stream.
type Record struct {
	OperationID     string
	TotalTime       time.Duration
	ChunkCount      int
	TotalChars      int
	CharsPerSecond  float64
	ChunksPerSecond float64
	AvgChunkSize    float64
	Truncated       bool
	Timestamp       time.Time
}

// metricsWindow is a bounded map of the most recent stream records,
// keyed by operation ID. All access is serialized by a single mutex.
type metricsWindow struct {
	mu      sync.Mutex
	cap     int
	records map[string]Record
}

func newMetricsWindow(capacity int) *metricsWindow {
	return &metricsWindow{
		cap:     capacity,
		records: make(map[string]Record, capacity),
	}
}

// add inserts a record, evicting the entry with the oldest timestamp
// when the window overflows. Ties on timestamp break toward the lowest
// operation ID so eviction is deterministic.
func (w *metricsWindow) add(rec Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records[rec.OperationID] = rec

	if len(w.records) <= w.cap {
		return
	}

	var oldestID string
	var oldest time.Time
	first := true
	for id, r := range w.records {
		if first || r.Timestamp.Before(oldest) || (r.Timestamp.Equal(oldest) && id < oldestID) {
			oldestID = id
			oldest = r.Timestamp
			first = false
		}
	}
	delete(w.records, oldestID)
}

// snapshot returns a copy of all records in the window.
func (w *metricsWindow) snapshot() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Record, 0, len(w.records))
	for _, r := range w.records {
		out = append(out, r)
	}
	return out
}

// get returns the record for an operation ID, if present.
func (w *metricsWindow) get(operationID string) (Record, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.records[operationID]
	return rec, ok
}

// record computes and stores the metrics entry for a finished stream and
// forwards a throughput sample to the observe layer.
func (g *Guard) record(ctx context.Context, operationID string, total time.Duration, chunks, chars int, truncated bool) {
	rec := Record{
		OperationID: operationID,
		TotalTime:   total,
		ChunkCount:  chunks,
		TotalChars:  chars,
		Truncated:   truncated,
		Timestamp:   g.now(),
	}
	if secs := total.Seconds(); secs > 0 {
		rec.CharsPerSecond = float64(chars) / secs
		rec.ChunksPerSecond = float64(chunks) / secs
	}
	if chunks > 0 {
		rec.AvgChunkSize = float64(chars) / float64(chunks)
	}

	g.window.add(rec)

	meta := g.config.Meta
	meta.RequestID = operationID
	g.config.Metrics.RecordStream(ctx, meta, observe.StreamSample{
		Chunks:    chunks,
		Chars:     chars,
		Duration:  total,
		Truncated: truncated,
	})

	fields := []observe.Field{
		{Key: "operation_id", Value: operationID},
		{Key: "total_time_ms", Value: total.Milliseconds()},
		{Key: "chunks", Value: chunks},
		{Key: "chars_per_second", Value: rec.CharsPerSecond},
	}
	if g.isSlow(total) {
		g.config.Logger.Warn(ctx, "slow response", fields...)
	} else {
		g.config.Logger.Info(ctx, "response completed", fields...)
	}
}

// isSlow reports whether a total time counts as a slow request: above
// 80% of the total-duration ceiling.
func (g *Guard) isSlow(total time.Duration) bool {
	return total > time.Duration(float64(g.config.MaxTotalDuration)*0.8)
}

// Metrics returns the stored record for an operation ID, if present.
func (g *Guard) Metrics(operationID string) (Record, bool) {
	return g.window.get(operationID)
}

// Stats summarizes the rolling metrics window.
type Stats struct {
	TotalRequests          int
	AvgResponseTime        time.Duration
	AvgCharsPerSecond      float64
	SlowRequestsPercentage float64
	PerformanceGrade       string
}

// PerformanceStats derives aggregate statistics and a performance grade
// from the metrics window. The grade is empty until at least one stream
// has completed.
func (g *Guard) PerformanceStats() Stats {
	records := g.window.snapshot()
	if len(records) == 0 {
		return Stats{}
	}

	var totalTime time.Duration
	var totalCPS float64
	slow := 0
	for _, r := range records {
		totalTime += r.TotalTime
		totalCPS += r.CharsPerSecond
		if g.isSlow(r.TotalTime) {
			slow++
		}
	}

	n := len(records)
	avgTime := totalTime / time.Duration(n)
	slowPct := float64(slow) / float64(n) * 100

	return Stats{
		TotalRequests:          n,
		AvgResponseTime:        avgTime,
		AvgCharsPerSecond:      totalCPS / float64(n),
		SlowRequestsPercentage: slowPct,
		PerformanceGrade:       grade(avgTime, slowPct),
	}
}

// grade maps (average total time, slow-request percentage) onto the
// four-tier A-D scale. Thresholds are tunable policy; the tiers are
// jointly monotonic.
func grade(avgTime time.Duration, slowPct float64) string {
	switch {
	case avgTime < 2*time.Second && slowPct < 5:
		return "A"
	case avgTime < 5*time.Second && slowPct < 15:
		return "B"
	case avgTime < 10*time.Second && slowPct < 30:
		return "C"
	default:
		return "D"
	}
}
