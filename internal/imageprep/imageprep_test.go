package imageprep

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunExecutesEveryTask(t *testing.T) {
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{Index: i, Image: "img", OutPath: "out"}
	}

	var count int32
	status := NewStatus()
	err := Run(context.Background(), tasks, 3, func(_ context.Context, _ Task) error {
		atomic.AddInt32(&count, 1)
		return nil
	}, status)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != int32(len(tasks)) {
		t.Errorf("expected all %d tasks to run, got %d", len(tasks), count)
	}
	if status.Completed() != len(tasks) {
		t.Errorf("expected %d completed, got %d", len(tasks), status.Completed())
	}
	if status.InFlight() != 0 {
		t.Errorf("expected 0 in flight after completion, got %d", status.InFlight())
	}
}

func TestRunFailsFastOnFirstTaskError(t *testing.T) {
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = Task{Index: i, Image: "img", OutPath: "out"}
	}

	boom := errors.New("boom")
	var started int32
	err := Run(context.Background(), tasks, 4, func(_ context.Context, task Task) error {
		atomic.AddInt32(&started, 1)
		if task.Index == 5 {
			return boom
		}
		return nil
	}, nil)
	if err == nil {
		t.Fatalf("expected an error from the failing task")
	}
}

func TestRunRespectsPoolSizeFloor(t *testing.T) {
	var active, maxActive int32
	var mu sync.Mutex

	tasks := make([]Task, 6)
	err := Run(context.Background(), tasks, 0, func(_ context.Context, _ Task) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if maxActive < 1 {
		t.Errorf("expected at least one worker with poolSize=0, got maxActive=%d", maxActive)
	}
}

func TestPoolSizeIsAtLeastOne(t *testing.T) {
	if PoolSize() < 1 {
		t.Errorf("PoolSize() = %d, want >= 1", PoolSize())
	}
}

func TestStatusTracksInFlightAndCompletedIndependently(t *testing.T) {
	s := NewStatus()
	s.started(0)
	s.started(1)
	if s.InFlight() != 2 {
		t.Fatalf("expected 2 in flight, got %d", s.InFlight())
	}
	s.finished(0)
	if s.InFlight() != 1 || s.Completed() != 1 {
		t.Errorf("expected 1 in flight and 1 completed, got inFlight=%d completed=%d", s.InFlight(), s.Completed())
	}
}
