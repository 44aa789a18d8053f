package encodeproc

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunSucceedsOnCleanExit(t *testing.T) {
	err := Run(context.Background(), Options{
		Bin:  "sh",
		Args: []string{"-c", "echo hello; echo world 1>&2; exit 0"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunReturnsErrorOnNonZeroExit(t *testing.T) {
	err := Run(context.Background(), Options{
		Bin:  "sh",
		Args: []string{"-c", "exit 7"},
	})
	if err == nil {
		t.Fatalf("expected an error for a non-zero exit")
	}
}

func TestRunTimesOutAndTerminates(t *testing.T) {
	start := time.Now()
	err := Run(context.Background(), Options{
		Bin:     "sh",
		Args:    []string{"-c", "sleep 30"},
		Timeout: 100 * time.Millisecond,
		Grace:   100 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("expected prompt termination, took %v", elapsed)
	}
}

func TestRunRespectsExternalCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, Options{
		Bin:   "sh",
		Args:  []string{"-c", "sleep 30"},
		Grace: 100 * time.Millisecond,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
