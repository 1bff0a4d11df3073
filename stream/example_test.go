package stream_test

import (
	"context"
	"fmt"
	"io"

	"github.com/chatstack/llmguard/stream"
)

func ExampleGuard_Supervise() {
	guard := stream.NewGuard(stream.GuardConfig{})

	src := stream.FromSlice([]string{"The answer ", "is ", "42."})
	guarded := guard.Supervise(context.Background(), src, "op-1")

	for {
		chunk, err := guarded.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("stream error:", err)
			return
		}
		fmt.Print(chunk)
	}
	fmt.Println()

	rec, _ := guard.Metrics("op-1")
	fmt.Println("chunks:", rec.ChunkCount)
	fmt.Println("chars:", rec.TotalChars)
	// Output:
	// The answer is 42.
	// chunks: 3
	// chars: 17
}

func ExampleGuard_PerformanceStats() {
	guard := stream.NewGuard(stream.GuardConfig{})

	guarded := guard.Supervise(context.Background(), stream.FromSlice([]string{"hello"}), "op-1")
	if _, err := stream.Collect(guarded); err != nil {
		fmt.Println("stream error:", err)
		return
	}

	stats := guard.PerformanceStats()
	fmt.Println("requests:", stats.TotalRequests)
	fmt.Println("grade:", stats.PerformanceGrade)
	// Output:
	// requests: 1
	// grade: A
}
