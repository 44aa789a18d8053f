// Package e2e exercises framebeat's full render pipeline end to end:
// a synthesized click-track WAV goes through beat detection, beat
// preparation, cut planning, duration quantization, image binding and
// filter-graph construction, the same sequence cmd/framebeat's render
// wires together, stopping short of invoking a real ffmpeg binary.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/framebeat/framebeat/internal/beat"
	"github.com/framebeat/framebeat/internal/beatsource"
	"github.com/framebeat/framebeat/internal/cache"
	"github.com/framebeat/framebeat/internal/duration"
	"github.com/framebeat/framebeat/internal/fixtures"
	"github.com/framebeat/framebeat/internal/graph"
	"github.com/framebeat/framebeat/internal/imagebind"
	"github.com/framebeat/framebeat/internal/imagesrc"
	"github.com/framebeat/framebeat/internal/plan"
	"github.com/framebeat/framebeat/internal/planio"
	"github.com/framebeat/framebeat/internal/planner"
)

func TestFullPipelineProducesAPlayableFilterGraph(t *testing.T) {
	dir := t.TempDir()

	audioPath := filepath.Join(dir, "click.wav")
	const bpm = 120.0
	audioEndS := fixtures.RenderClickTrack(audioPath, 48000, bpm, 32)

	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatalf("mkdir images: %v", err)
	}
	for _, name := range []string{"a.jpg", "b.jpg", "c.png", "d.png"} {
		if err := os.WriteFile(filepath.Join(imagesDir, name), []byte("not a real image, just a fixture"), 0o644); err != nil {
			t.Fatalf("write image %s: %v", name, err)
		}
	}

	source := beatsource.NewSynthetic(bpm, audioEndS, nil)
	defer source.Close()

	res, err := source.Detect(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(res.Beats.Times) == 0 {
		t.Fatalf("expected a non-empty synthetic beat grid")
	}

	prepared := beat.Prepare(res.Beats, 0)
	if prepared.Len() == 0 {
		t.Fatalf("expected a non-empty prepared beat set")
	}

	cuts, err := planner.Plan(prepared, plan.PeriodWindow{
		MinS: 1.0, MaxS: 4.0, TargetS: 2.0, GraceS: 0.5,
	}, planner.Options{
		Strategy:   planner.Nearest,
		Strict:     false,
		MinCutGapS: beat.MinGap,
		AudioEndS:  audioEndS,
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(cuts) == 0 {
		t.Fatalf("expected at least one cut from a %ds click track", int(audioEndS))
	}

	cutTimes := make([]float64, len(cuts))
	for i, c := range cuts {
		cutTimes[i] = c.TimeS
	}
	nominal := duration.Nominal(cutTimes, audioEndS)
	durationsS, warnings := duration.Quantize(nominal, 30, duration.Nearest)
	for _, w := range warnings {
		t.Logf("duration merge warning: segment %d: %s", w.Index, w.Msg)
	}
	if len(durationsS) == 0 {
		t.Fatalf("expected at least one quantized segment duration")
	}

	images, err := imagesrc.List(imagesDir)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	bound := imagebind.Bind(images, len(durationsS), false, 0, imagebind.Loop)
	if bound.SegmentCount != len(durationsS) {
		t.Fatalf("bound %d segments, want %d", bound.SegmentCount, len(durationsS))
	}

	boundaries := make([]graph.BoundarySpec, len(bound.Images)-1)
	for i := range boundaries {
		boundaries[i] = graph.BoundarySpec{Transition: graph.TransitionFade, DurationS: 0.2}
	}
	root, diags := graph.Build(bound.Images, durationsS, graph.RenderSpec{
		Mode:       graph.ModeCrossfade,
		Boundaries: boundaries,
		Align:      graph.AlignEnd,
		XfadeMinS:  0.1,
		FPS:        30,
		Width:      1280,
		Height:     720,
		PixFmt:     "yuv420p",
	})
	if root == nil {
		t.Fatalf("expected a non-nil filter graph root")
	}
	for _, d := range diags {
		t.Logf("boundary %d safe=%v reason=%q", d.Index, d.Safe, d.Reason)
	}

	text, rootLabel := graph.PrintFilterGraphWithRoot(root)
	if text == "" {
		t.Fatalf("expected non-empty filter_complex script")
	}
	if rootLabel == "" {
		t.Fatalf("expected a non-empty root label for -map")
	}
}

// When the image directory has fewer images than planned segments and
// the binder truncates rather than loops, the final segment's duration
// must be re-trimmed to the audio's end time, not just the cut list
// sliced: the sum of durations has to keep matching audioEndS exactly.
func TestTruncatedBindKeepsDurationsSummingToAudioEnd(t *testing.T) {
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatalf("mkdir images: %v", err)
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if err := os.WriteFile(filepath.Join(imagesDir, name), []byte("fixture"), 0o644); err != nil {
			t.Fatalf("write image %s: %v", name, err)
		}
	}

	audioEndS := 20.0
	cuts := []plan.Cut{{TimeS: 0}, {TimeS: 5}, {TimeS: 10}, {TimeS: 15}}
	cutTimes := make([]float64, len(cuts))
	for i, c := range cuts {
		cutTimes[i] = c.TimeS
	}
	nominal := duration.Nominal(cutTimes, audioEndS)
	durationsS, _ := duration.Quantize(nominal, 30, duration.Nearest)

	images, err := imagesrc.List(imagesDir)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	bound := imagebind.Bind(images, len(durationsS), false, 0, imagebind.Truncate)
	if bound.SegmentCount >= len(durationsS) {
		t.Fatalf("expected truncation (2 images, %d segments), got segment count %d", len(durationsS), bound.SegmentCount)
	}

	durationsS = durationsS[:bound.SegmentCount]
	cuts = cuts[:bound.SegmentCount]
	durationsS[bound.SegmentCount-1] = audioEndS - cuts[bound.SegmentCount-1].TimeS

	var sum float64
	for _, d := range durationsS {
		sum += d
	}
	if diff := sum - audioEndS; diff < -1e-6 || diff > 1e-6 {
		t.Fatalf("durations sum to %v, want %v", sum, audioEndS)
	}
}

// Writing a plan document and reading it back must reproduce the
// exact same encoder instructions for the same render parameters.
func TestPlanRoundTripYieldsByteIdenticalFilterGraph(t *testing.T) {
	pl := &plan.Plan{
		Cuts: []plan.Cut{
			{TimeS: 2.0, BeatIndex: 4, WindowUsed: plan.WindowNormal, Strategy: "nearest"},
			{TimeS: 4.5, BeatIndex: 9, WindowUsed: plan.WindowNormal, Strategy: "nearest"},
			{TimeS: 7.0, BeatIndex: 14, WindowUsed: plan.WindowNormal, Strategy: "nearest"},
		},
		AudioEndS:     10.0,
		PreparedBeats: []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5},
		Images:        []string{"/tmp/a.jpg", "/tmp/b.jpg", "/tmp/c.jpg"},
		DurationsS:    []float64{2.5, 2.5, 3.0},
		Params:        map[string]any{"strategy": "nearest"},
	}

	buildGraph := func(p *plan.Plan) string {
		boundaries := make([]graph.BoundarySpec, len(p.Images)-1)
		for i := range boundaries {
			boundaries[i] = graph.BoundarySpec{Transition: graph.TransitionFade, DurationS: 0.3}
		}
		root, _ := graph.Build(p.Images, p.DurationsS, graph.RenderSpec{
			Mode:       graph.ModeCrossfade,
			Boundaries: boundaries,
			Align:      graph.AlignEnd,
			XfadeMinS:  0.1,
			FPS:        30,
			Width:      1280,
			Height:     720,
			PixFmt:     "yuv420p",
		})
		return graph.PrintFilterGraph(root)
	}

	before := buildGraph(pl)

	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := planio.Write(path, planio.ToDocument(pl, 1280, 720, 30)); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	doc, err := planio.Read(path)
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	after := buildGraph(planio.FromDocument(doc))

	if before != after {
		t.Fatalf("filter graph changed across plan round trip:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestHashAudioFileIsStableAcrossCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "click.wav")
	fixtures.RenderClickTrack(audioPath, 48000, 128, 16)

	hash1, err := cache.HashAudioFile(audioPath)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hash2, err := cache.HashAudioFile(audioPath)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash1 != hash2 {
		t.Fatalf("expected a stable content hash, got %q and %q", hash1, hash2)
	}
}
