package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewBulkhead_Defaults(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})

	if b.config.MaxConcurrent != 100 {
		t.Errorf("MaxConcurrent = %d, want 100", b.config.MaxConcurrent)
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})

	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		b.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != ErrBulkheadFull {
		t.Errorf("Execute() when full = %v, want ErrBulkheadFull", err)
	}

	close(release)
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		MaxConcurrent: 1,
		MaxWait:       time.Second,
	})

	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		b.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() with wait = %v, want nil", err)
	}
}

func TestBulkhead_WaitTimesOut(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		MaxConcurrent: 1,
		MaxWait:       10 * time.Millisecond,
	})

	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		b.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != ErrBulkheadFull {
		t.Errorf("Execute() after wait timeout = %v, want ErrBulkheadFull", err)
	}

	close(release)
}

func TestBulkhead_Stats(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})

	var wg sync.WaitGroup
	gate := make(chan struct{})

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Execute(context.Background(), func(ctx context.Context) error {
				<-gate
				return nil
			})
		}()
	}

	// Wait for both to be in flight
	deadline := time.Now().Add(time.Second)
	for {
		if b.Stats().Active == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if stats := b.Stats(); stats.Active != 2 {
		t.Errorf("Active = %d, want 2", stats.Active)
	}

	// Third call rejected
	b.Execute(context.Background(), func(ctx context.Context) error { return nil })

	close(gate)
	wg.Wait()

	stats := b.Stats()
	if stats.Active != 0 {
		t.Errorf("Active after drain = %d, want 0", stats.Active)
	}
	if stats.MaxActive != 2 {
		t.Errorf("MaxActive = %d, want 2", stats.MaxActive)
	}
	if stats.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", stats.Rejected)
	}
}
