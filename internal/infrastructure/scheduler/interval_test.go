package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunsImmediatelyThenOnInterval(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 runs, got %d", runs.Load())
		case <-time.After(time.Millisecond):
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Minute)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestContextCancelStopsTicking(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx, func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	cancel()
	time.Sleep(30 * time.Millisecond)
	frozen := runs.Load()
	time.Sleep(30 * time.Millisecond)

	if got := runs.Load(); got != frozen {
		t.Fatalf("job kept running after cancel: %d -> %d", frozen, got)
	}
}
