package cache

import (
	"testing"

	"github.com/framebeat/framebeat/internal/beat"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetOnEmptyCacheIsNotFound(t *testing.T) {
	db := openTestDB(t)

	_, _, _, found, err := db.Get("deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected no entry for an unpopulated cache")
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	db := openTestDB(t)

	raw := beat.Raw{
		Times:         []float64{0.5, 1.0, 1.5},
		OnsetStrength: []float64{0.1, 0.9, 0.4},
		IsDownbeat:    []bool{true, false, false},
	}
	if err := db.Put("hash-a", raw, 12.5, "synthetic"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, audioEndS, detector, found, err := db.Get("hash-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected entry to be found after Put")
	}
	if audioEndS != 12.5 {
		t.Errorf("audioEndS = %v, want 12.5", audioEndS)
	}
	if detector != "synthetic" {
		t.Errorf("detector = %q, want synthetic", detector)
	}
	if len(got.Times) != 3 || got.Times[1] != 1.0 {
		t.Errorf("unexpected times: %v", got.Times)
	}
	if len(got.OnsetStrength) != 3 || got.OnsetStrength[1] != 0.9 {
		t.Errorf("unexpected strengths: %v", got.OnsetStrength)
	}
	if len(got.IsDownbeat) != 3 || !got.IsDownbeat[0] {
		t.Errorf("unexpected downbeats: %v", got.IsDownbeat)
	}
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	db := openTestDB(t)

	if err := db.Put("hash-b", beat.Raw{Times: []float64{1}}, 5, "process"); err != nil {
		t.Fatalf("Put (first): %v", err)
	}
	if err := db.Put("hash-b", beat.Raw{Times: []float64{1, 2}}, 9, "synthetic"); err != nil {
		t.Fatalf("Put (second): %v", err)
	}

	got, audioEndS, detector, found, err := db.Get("hash-b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected entry to be found")
	}
	if len(got.Times) != 2 {
		t.Errorf("expected overwritten entry with 2 beats, got %d", len(got.Times))
	}
	if audioEndS != 9 || detector != "synthetic" {
		t.Errorf("overwrite did not take effect: audioEndS=%v detector=%q", audioEndS, detector)
	}
}

func TestGetWithoutAuxiliaryArraysLeavesThemNil(t *testing.T) {
	db := openTestDB(t)

	if err := db.Put("hash-c", beat.Raw{Times: []float64{0.25, 0.75}}, 2, "synthetic"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, _, found, err := db.Get("hash-c")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected entry to be found")
	}
	if got.OnsetStrength != nil {
		t.Errorf("expected nil OnsetStrength, got %v", got.OnsetStrength)
	}
	if got.IsDownbeat != nil {
		t.Errorf("expected nil IsDownbeat, got %v", got.IsDownbeat)
	}
}

func TestMigrateIsIdempotentAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open (first): %v", err)
	}
	if err := db1.Put("hash-d", beat.Raw{Times: []float64{1}}, 3, "process"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	db1.Close()

	db2, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open (second): %v", err)
	}
	defer db2.Close()

	_, _, _, found, err := db2.Get("hash-d")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !found {
		t.Fatalf("expected entry written before close to survive reopen")
	}
}
