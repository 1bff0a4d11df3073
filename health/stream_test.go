package health

import (
	"context"
	"testing"
	"time"

	"github.com/chatstack/llmguard/stream"
)

// stubStats is a StatsSource returning fixed aggregate stats.
type stubStats struct {
	stats stream.Stats
}

func (s stubStats) PerformanceStats() stream.Stats {
	return s.stats
}

func TestStreamChecker_NoStreams(t *testing.T) {
	checker := NewStreamChecker("llm-stream", stubStats{})

	if checker.Name() != "llm-stream" {
		t.Errorf("Name() = %v, want 'llm-stream'", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("empty window Status = %v, want StatusHealthy", result.Status)
	}
}

func TestStreamChecker_Grades(t *testing.T) {
	tests := []struct {
		grade string
		want  Status
	}{
		{"A", StatusHealthy},
		{"B", StatusHealthy},
		{"C", StatusDegraded},
		{"D", StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			checker := NewStreamChecker("llm-stream", stubStats{stats: stream.Stats{
				TotalRequests:          10,
				AvgResponseTime:        3 * time.Second,
				SlowRequestsPercentage: 12.5,
				PerformanceGrade:       tt.grade,
			}})

			result := checker.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("grade %s Status = %v, want %v", tt.grade, result.Status, tt.want)
			}
			if result.Details["grade"] != tt.grade {
				t.Errorf("Details[grade] = %v, want %v", result.Details["grade"], tt.grade)
			}
			if result.Details["total_requests"] != 10 {
				t.Errorf("Details[total_requests] = %v, want 10", result.Details["total_requests"])
			}
		})
	}
}

func TestStreamChecker_WithGuard(t *testing.T) {
	guard := stream.NewGuard(stream.GuardConfig{})

	src := stream.FromSlice([]string{"hello ", "world"})
	guarded := guard.Supervise(context.Background(), src, "op-health")
	if _, err := stream.Collect(guarded); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	result := NewStreamChecker("llm-stream", guard).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("fast stream Status = %v, want StatusHealthy", result.Status)
	}
	if result.Details["grade"] != "A" {
		t.Errorf("Details[grade] = %v, want 'A'", result.Details["grade"])
	}
}
