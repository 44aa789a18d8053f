package overlay

import (
	"testing"

	"github.com/framebeat/framebeat/internal/graph"
)

func TestBuildMarksEveryBeatByDefault(t *testing.T) {
	events := Build([]float64{1, 2, 3}, nil, Params{MarkBeats: true, BeatMult: 1})
	ticks := countKind(events, graph.OverlayBeatTick)
	if ticks != 3 {
		t.Fatalf("expected 3 beat ticks, got %d", ticks)
	}
}

func TestBuildThinsByBeatMult(t *testing.T) {
	events := Build([]float64{1, 2, 3, 4, 5, 6}, nil, Params{MarkBeats: true, BeatMult: 2})
	ticks := countKind(events, graph.OverlayBeatTick)
	if ticks != 3 {
		t.Fatalf("expected every other beat (3 of 6), got %d", ticks)
	}
}

func TestBuildSuppressesOverlaysNearTransitionLanding(t *testing.T) {
	beats := []float64{1, 5, 10}
	landings := []float64{5.05}
	events := Build(beats, landings, Params{MarkBeats: true, BeatMult: 1, OverlayGuardS: 0.2})
	for _, e := range events {
		if e.TimeS > 4.8 && e.TimeS < 5.3 {
			t.Errorf("expected beat at 5 to be suppressed near landing 5.05, got event at %v", e.TimeS)
		}
	}
	if countKind(events, graph.OverlayBeatTick) != 2 {
		t.Fatalf("expected 2 surviving beat ticks, got %d", countKind(events, graph.OverlayBeatTick))
	}
}

func TestBuildCounterIsSticky(t *testing.T) {
	events := Build([]float64{1, 2, 3}, nil, Params{Counter: true})
	var values []string
	for _, e := range events {
		if e.Kind == graph.OverlayCounter {
			values = append(values, e.Params["value"])
		}
	}
	want := []string{"1", "2", "3"}
	for i, w := range want {
		if values[i] != w {
			t.Errorf("counter value %d: got %s want %s", i, values[i], w)
		}
	}
}

// The counter never resets or skips: a beat inside the transition
// guard still increments it even though its tick is suppressed.
func TestBuildCounterKeepsCountingThroughGuardedBeats(t *testing.T) {
	beats := []float64{1, 5, 10}
	landings := []float64{5.05}
	events := Build(beats, landings, Params{MarkBeats: true, BeatMult: 1, Counter: true, OverlayGuardS: 0.2})

	if got := countKind(events, graph.OverlayBeatTick); got != 2 {
		t.Fatalf("expected the guarded tick to be suppressed, got %d ticks", got)
	}
	var values []string
	for _, e := range events {
		if e.Kind == graph.OverlayCounter {
			values = append(values, e.Params["value"])
		}
	}
	want := []string{"1", "2", "3"}
	if len(values) != len(want) {
		t.Fatalf("expected %d counter events, got %d", len(want), len(values))
	}
	for i, w := range want {
		if values[i] != w {
			t.Errorf("counter value %d: got %s want %s", i, values[i], w)
		}
	}
}

func TestWithScopeDegradesWhenNoMaskSource(t *testing.T) {
	root := graph.Source{Image: "a.jpg", DurationS: 1}
	got := WithScope(root, Params{MaskScope: graph.ScopeForeground})
	if _, ok := got.(graph.WithMask); ok {
		t.Fatalf("expected scope to degrade to none without a mask source")
	}
}

func TestWithScopeWrapsWhenMaskSourceConfigured(t *testing.T) {
	root := graph.Source{Image: "a.jpg", DurationS: 1}
	got := WithScope(root, Params{MaskScope: graph.ScopeForeground, MaskSource: "mask.png"})
	wm, ok := got.(graph.WithMask)
	if !ok {
		t.Fatalf("expected WithMask wrapper, got %T", got)
	}
	if wm.Scope != graph.ScopeForeground || wm.MaskSource != "mask.png" {
		t.Errorf("unexpected WithMask contents: %+v", wm)
	}
}

func countKind(events []graph.OverlayEvent, k graph.OverlayKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
