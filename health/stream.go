package health

import (
	"context"
	"fmt"

	"github.com/chatstack/llmguard/stream"
)

// StatsSource yields aggregate streaming performance, typically a
// *stream.Guard.
type StatsSource interface {
	PerformanceStats() stream.Stats
}

// StreamChecker reports streaming performance from a stream guard's
// rolling metrics window. Grades A and B are healthy, C is degraded,
// D is unhealthy. With no completed streams it reports healthy.
type StreamChecker struct {
	name  string
	guard StatsSource
}

// NewStreamChecker creates a checker over a shared stream guard.
func NewStreamChecker(name string, guard StatsSource) *StreamChecker {
	return &StreamChecker{name: name, guard: guard}
}

// Name returns the name of this checker.
func (c *StreamChecker) Name() string {
	return c.name
}

// Check reports the performance grade with aggregate stats as details.
func (c *StreamChecker) Check(_ context.Context) Result {
	stats := c.guard.PerformanceStats()

	if stats.TotalRequests == 0 {
		return Healthy("no streams recorded yet")
	}

	details := map[string]any{
		"grade":            stats.PerformanceGrade,
		"total_requests":   stats.TotalRequests,
		"avg_response_ms":  stats.AvgResponseTime.Milliseconds(),
		"slow_request_pct": stats.SlowRequestsPercentage,
	}

	msg := fmt.Sprintf("performance grade %s", stats.PerformanceGrade)

	switch stats.PerformanceGrade {
	case "A", "B":
		return Healthy(msg).WithDetails(details)
	case "C":
		return Degraded(msg).WithDetails(details)
	default:
		return Unhealthy(msg, nil).WithDetails(details)
	}
}
