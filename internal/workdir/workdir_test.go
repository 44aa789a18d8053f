package workdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCreatesUniqueRootsUnderBase(t *testing.T) {
	base := t.TempDir()

	d1, err := New(base, false, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d2, err := New(base, false, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d1.Close()
	defer d2.Close()

	if d1.Root == d2.Root {
		t.Fatalf("expected distinct render nonces, got the same root %s twice", d1.Root)
	}
	if !strings.HasPrefix(filepath.Base(d1.Root), "render-") {
		t.Errorf("expected root to be prefixed render-, got %s", d1.Root)
	}
	if _, err := os.Stat(filepath.Join(d1.Root, "clips")); err != nil {
		t.Errorf("expected clips subdirectory to exist: %v", err)
	}
}

func TestWriteBeatsThenReadBack(t *testing.T) {
	d, err := New(t.TempDir(), true, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.WriteBeats([]float64{0.5, 1.0, 1.75}); err != nil {
		t.Fatalf("WriteBeats: %v", err)
	}
	content, err := os.ReadFile(d.BeatsPath())
	if err != nil {
		t.Fatalf("read beats.txt: %v", err)
	}
	lines := strings.Fields(string(content))
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), string(content))
	}
}

func TestClipPathIsZeroPaddedByIndex(t *testing.T) {
	d, err := New(t.TempDir(), true, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	got := d.ClipPath(7, ".png")
	if filepath.Base(got) != "0007.png" {
		t.Errorf("ClipPath(7, \".png\") = %s, want basename 0007.png", got)
	}
}

func TestCloseRemovesWorkdirOnSuccessWithoutKeep(t *testing.T) {
	d, err := New(t.TempDir(), false, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := d.Root

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("expected workdir to be removed, stat err = %v", err)
	}
}

func TestCloseKeepsWorkdirWhenKeepRequested(t *testing.T) {
	d, err := New(t.TempDir(), true, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := d.Root

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected workdir to survive Close with keep=true: %v", err)
	}
}

func TestCloseKeepsWorkdirOnFailureRegardlessOfKeepFlag(t *testing.T) {
	d, err := New(t.TempDir(), false, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := d.Root
	d.MarkFailed()

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected failed workdir to be preserved: %v", err)
	}
}
