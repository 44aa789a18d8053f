// Package imageprep runs the pre-render image preparation pass: each
// image is scaled/padded to a normalised intermediate, one task per
// image, on a bounded worker pool sized at ceil(0.75 * hardware
// concurrency). Tasks are independent and their results are written to
// distinct, segment-indexed paths; a single task failure fails the
// whole render. A fixed worker count drains a channel-fed task queue,
// with the first error collected on a dedicated channel rather than a
// shared mutable slice.
package imageprep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Task is one image's preparation unit of work: read Image, write the
// normalised intermediate to OutPath.
type Task struct {
	Index   int
	Image   string
	OutPath string
}

// Prepare is the function that actually does the work for one task;
// swappable in tests.
type Prepare func(ctx context.Context, t Task) error

// PoolSize returns ceil(0.75 * hardware concurrency), with a floor
// of 1 so preparation still runs on a single-core machine.
func PoolSize() int {
	n := int(math.Ceil(0.75 * float64(runtime.NumCPU())))
	if n < 1 {
		return 1
	}
	return n
}

// Status tracks which segment indices are in flight versus completed,
// using a set rather than a slice since membership (not order) is
// what callers need to query.
type Status struct {
	mu        sync.Mutex
	inFlight  mapset.Set[int]
	completed mapset.Set[int]
}

// NewStatus builds an empty Status tracker.
func NewStatus() *Status {
	return &Status{inFlight: mapset.NewSet[int](), completed: mapset.NewSet[int]()}
}

func (s *Status) started(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight.Add(i)
}

func (s *Status) finished(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight.Remove(i)
	s.completed.Add(i)
}

// InFlight reports the number of tasks currently running.
func (s *Status) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight.Cardinality()
}

// Completed reports the number of tasks that finished successfully.
func (s *Status) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed.Cardinality()
}

// Run executes every task on a bounded worker pool of size poolSize,
// calling prepare for each. The first task error cancels the
// remaining in-flight and queued work and is returned: a single
// failure is fatal to the whole render.
func Run(ctx context.Context, tasks []Task, poolSize int, prepare Prepare, status *Status) error {
	if poolSize < 1 {
		poolSize = 1
	}
	if status == nil {
		status = NewStatus()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	taskCh := make(chan Task)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	for w := 0; w < poolSize; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				status.started(t.Index)
				if err := prepare(ctx, t); err != nil {
					select {
					case errCh <- fmt.Errorf("imageprep: task %d (%s): %w", t.Index, t.Image, err):
					default:
					}
					cancel()
					return
				}
				status.finished(t.Index)
			}
		}()
	}

feed:
	for _, t := range tasks {
		select {
		case taskCh <- t:
		case <-ctx.Done():
			break feed
		}
	}
	close(taskCh)
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
	}
	if ctx.Err() != nil && ctx.Err() != context.Canceled {
		return ctx.Err()
	}
	return nil
}
