// Command framebeat renders a beat-aligned image slideshow from an
// audio file and a directory of still images: prepare beats, select
// cuts with the planner, prepare and bind images to segments, build
// the render graph, and drive an external encoder process. A one-shot
// CLI, not a long-lived service: every failure mode maps to a
// documented exit code.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/framebeat/framebeat/internal/beat"
	"github.com/framebeat/framebeat/internal/beatsource"
	"github.com/framebeat/framebeat/internal/cache"
	"github.com/framebeat/framebeat/internal/config"
	"github.com/framebeat/framebeat/internal/duration"
	"github.com/framebeat/framebeat/internal/encodeproc"
	"github.com/framebeat/framebeat/internal/graph"
	"github.com/framebeat/framebeat/internal/imagebind"
	"github.com/framebeat/framebeat/internal/imageprep"
	"github.com/framebeat/framebeat/internal/imagesrc"
	"github.com/framebeat/framebeat/internal/overlay"
	"github.com/framebeat/framebeat/internal/plan"
	"github.com/framebeat/framebeat/internal/planio"
	"github.com/framebeat/framebeat/internal/planner"
	"github.com/framebeat/framebeat/internal/workdir"
)

// Exit codes.
const (
	exitSuccess        = 0
	exitInvalidArgs    = 2
	exitNoBeatsAtAll   = 3
	exitNoBeatInWindow = 4
	exitEncoderFailure = 5
	exitIOFailure      = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	params, touched, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidArgs
	}
	if err := config.Apply(&params, touched, params.Preset); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidArgs
	}
	if err := params.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidArgs
	}
	if err := graph.ValidateTransition(graph.Transition(params.Transition), params.Xfade, float64(params.FPS)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidArgs
	}

	level := slog.LevelInfo
	switch params.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if params.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wd, err := workdir.New(workdirBase(params), params.KeepWorkdir, logger)
	if err != nil {
		logger.Error("failed to create workdir", "error", err)
		return exitIOFailure
	}

	p, root, out, renderErr := render(ctx, params, wd, logger)
	if renderErr != nil {
		wd.MarkFailed()
		wd.Close()

		var noBeat *planner.NoBeatInWindowError
		switch {
		case errors.As(renderErr, &noBeat):
			logger.Error("no beat in window under strict mode", "error", renderErr)
			return exitNoBeatInWindow
		case errors.Is(renderErr, errNoBeatsDetected):
			logger.Error("no beats detected", "error", renderErr)
			return exitNoBeatsAtAll
		case errors.Is(renderErr, errEncoder):
			logger.Error("encoder failed", "error", renderErr)
			return exitEncoderFailure
		case errors.Is(renderErr, errIO):
			logger.Error("I/O failure", "error", renderErr)
			return exitIOFailure
		default:
			logger.Error("render failed", "error", renderErr)
			return exitInvalidArgs
		}
	}
	defer wd.Close()

	if params.PlanOut != "" {
		doc := planio.ToDocument(p, params.Width, params.Height, float64(params.FPS))
		if err := planio.Write(params.PlanOut, doc); err != nil {
			logger.Error("failed to write plan", "error", err)
			return exitIOFailure
		}
	}

	logger.Info("render complete", "out", out, "segments", len(p.Images), "root_label", root)
	return exitSuccess
}

var (
	errNoBeatsDetected = errors.New("framebeat: no beats detected")
	errEncoder         = errors.New("framebeat: encoder invocation failed")
	errIO              = errors.New("framebeat: I/O failure")
)

func workdirBase(p config.Params) string {
	if p.Workdir != "" {
		return p.Workdir
	}
	return filepath.Join(os.TempDir(), "framebeat")
}

// render runs the full pipeline (or replays a stored plan) and
// returns the bound plan, the filter graph's output label, and the
// output path, for logging and plan-out purposes.
func render(ctx context.Context, p config.Params, wd *workdir.Dir, logger *slog.Logger) (*plan.Plan, string, string, error) {
	var pl *plan.Plan
	var err error

	if p.PlanIn != "" {
		pl, err = loadPlan(p)
	} else {
		pl, err = buildPlan(ctx, p, wd, logger)
	}
	if err != nil {
		return nil, "", "", err
	}

	rs := renderSpec(p, pl)
	root, out, err := encode(ctx, p, pl, rs, wd, logger)
	if err != nil {
		return nil, "", "", err
	}
	return pl, root, out, nil
}

func loadPlan(p config.Params) (*plan.Plan, error) {
	doc, err := planio.Read(p.PlanIn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errIO, err)
	}
	pl := planio.FromDocument(doc)

	rebound, err := planio.RebindMissingImages(pl.Images, p.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errIO, err)
	}
	pl.Images = rebound
	return pl, nil
}

func buildPlan(ctx context.Context, p config.Params, wd *workdir.Dir, logger *slog.Logger) (*plan.Plan, error) {
	audioEndS := p.AudioEnd
	if audioEndS <= 0 {
		var err error
		audioEndS, err = probeAudioEnd(ctx, p.AudioFile)
		if err != nil {
			return nil, fmt.Errorf("%w: probe audio duration: %v", errIO, err)
		}
	}

	raw, detector, err := detectBeats(ctx, p, audioEndS, logger)
	if err != nil {
		return nil, err
	}
	if len(raw.Times) == 0 {
		return nil, fmt.Errorf("%w", errNoBeatsDetected)
	}

	prepared := beat.Prepare(raw, p.Phase)
	if prepared.Len() == 0 {
		return nil, fmt.Errorf("%w", errNoBeatsDetected)
	}
	if err := wd.WriteBeats(prepared.Times); err != nil {
		logger.Warn("failed to write beats.txt", "error", err)
	}

	cuts, err := planCuts(prepared, p, audioEndS)
	if err != nil {
		return nil, err
	}
	if len(cuts) == 0 {
		return nil, fmt.Errorf("%w: no cuts could be planned", errNoBeatsDetected)
	}

	cutTimes := make([]float64, len(cuts))
	for i, c := range cuts {
		cutTimes[i] = c.TimeS
	}
	nominal := duration.Nominal(cutTimes, audioEndS)
	mode := duration.QuantMode(p.FrameQuantize)
	durations, warnings := duration.Quantize(nominal, float64(p.FPS), mode)
	for _, w := range warnings {
		logger.Warn("duration quantization", "index", w.Index, "msg", w.Msg)
	}

	images, err := imagesrc.List(p.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: list images: %v", errIO, err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images found in %s", errIO, p.ImagesDir)
	}
	images, err = prepareImages(ctx, images, wd, p.Width, p.Height, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare images: %v", errIO, err)
	}
	bound := imagebind.Bind(images, len(durations), p.Shuffle, p.Seed, loopPolicy(p.ImageLoop))
	if bound.SegmentCount < len(durations) {
		durations = durations[:bound.SegmentCount]
		cuts = cuts[:bound.SegmentCount]
		durations[bound.SegmentCount-1] = audioEndS - cuts[bound.SegmentCount-1].TimeS
	}

	snapshot := paramsSnapshot(p)
	snapshot["detector"] = detector

	return &plan.Plan{
		Cuts:          cuts,
		AudioEndS:     audioEndS,
		PreparedBeats: prepared.Times,
		Images:        bound.Images,
		DurationsS:    durations,
		Params:        snapshot,
	}, nil
}

func loopPolicy(loop bool) imagebind.LoopPolicy {
	if loop {
		return imagebind.Loop
	}
	return imagebind.Truncate
}

// prepareImages scales/pads every source image to the output
// dimensions up front, on a bounded worker pool, so the render graph
// never has to carry per-image aspect-ratio correction. The
// normalised intermediates are written into the workdir's clips
// directory, one per segment index.
func prepareImages(ctx context.Context, images []string, wd *workdir.Dir, width, height int, logger *slog.Logger) ([]string, error) {
	if len(images) == 0 {
		return images, nil
	}

	tasks := make([]imageprep.Task, len(images))
	out := make([]string, len(images))
	for i, img := range images {
		ext := filepath.Ext(img)
		if ext == "" {
			ext = ".jpg"
		}
		outPath := wd.ClipPath(i, ext)
		tasks[i] = imageprep.Task{Index: i, Image: img, OutPath: outPath}
		out[i] = outPath
	}

	prepare := func(ctx context.Context, t imageprep.Task) error {
		return prepareImage(ctx, t, width, height)
	}

	status := imageprep.NewStatus()
	if err := imageprep.Run(ctx, tasks, imageprep.PoolSize(), prepare, status); err != nil {
		return nil, err
	}
	logger.Debug("image preparation complete", "count", status.Completed())
	return out, nil
}

// prepareImage scales and pads one image to width x height, writing a
// single-frame intermediate to t.OutPath via the same scale/pad
// formula the printer uses for the post-concat Format pass.
func prepareImage(ctx context.Context, t imageprep.Task, width, height int) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-i", t.Image,
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", width, height, width, height),
		"-frames:v", "1",
		t.OutPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func planCuts(prepared beat.Set, p config.Params, audioEndS float64) ([]plan.Cut, error) {
	opts := planner.Options{
		Strategy:   planner.Strategy(p.Strategy),
		Strict:     p.Strict,
		MinCutGapS: p.MinGap,
		AudioEndS:  audioEndS,
	}
	if p.AllBeats {
		opts.Strategy = planner.AllBeats
	}
	w := plan.PeriodWindow{MinS: p.PeriodMin, MaxS: p.PeriodMax, TargetS: p.Target, GraceS: p.Grace}

	cuts, err := planner.Plan(prepared, w, opts)
	if err != nil {
		return nil, err
	}
	if p.MaxSeconds > 0 {
		limited := cuts[:0]
		for _, c := range cuts {
			if c.TimeS > p.MaxSeconds {
				break
			}
			limited = append(limited, c)
		}
		cuts = limited
	}
	return cuts, nil
}

func detectBeats(ctx context.Context, p config.Params, audioEndS float64, logger *slog.Logger) (beat.Raw, string, error) {
	dataDir := config.DefaultDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return beat.Raw{}, "", fmt.Errorf("%w: create data dir: %v", errIO, err)
	}
	db, err := cache.Open(dataDir, logger)
	if err != nil {
		return beat.Raw{}, "", fmt.Errorf("%w: open beat cache: %v", errIO, err)
	}
	defer db.Close()

	audioHash, err := cache.HashAudioFile(p.AudioFile)
	if err != nil {
		return beat.Raw{}, "", fmt.Errorf("%w: hash audio file: %v", errIO, err)
	}

	if raw, _, detector, found, err := db.Get(audioHash); err == nil && found {
		logger.Info("beat cache hit", "audio_hash", audioHash, "detector", detector)
		return raw, detector, nil
	} else if err != nil {
		logger.Warn("beat cache lookup failed, recomputing", "error", err)
	}

	source, detectorName := selectBeatSource(p, audioEndS, logger)
	defer source.Close()

	res, err := source.Detect(ctx, p.AudioFile)
	if err != nil {
		return beat.Raw{}, "", fmt.Errorf("%w: detect beats: %v", errIO, err)
	}

	if err := db.Put(audioHash, res.Beats, res.AudioEndS, detectorName); err != nil {
		logger.Warn("failed to write beat cache entry", "error", err)
	}
	return res.Beats, detectorName, nil
}

func selectBeatSource(p config.Params, audioEndS float64, logger *slog.Logger) (beatsource.Source, string) {
	if bin := os.Getenv("FRAMEBEAT_BEAT_DETECTOR"); bin != "" {
		return beatsource.NewProcessClient(bin, nil, logger), "process:" + bin
	}
	return beatsource.NewSynthetic(120, audioEndS, logger), "synthetic"
}

func renderSpec(p config.Params, pl *plan.Plan) graph.RenderSpec {
	mode := graph.ModeCrossfade
	if p.Hardcuts {
		mode = graph.ModeHardcut
	}

	n := len(pl.DurationsS)
	boundaryCount := n - 1
	if boundaryCount < 0 {
		boundaryCount = 0
	}
	boundaries := make([]graph.BoundarySpec, 0, boundaryCount)
	for i := 0; i < boundaryCount; i++ {
		boundaries = append(boundaries, graph.BoundarySpec{
			Transition: graph.Transition(p.Transition),
			DurationS:  p.Xfade,
			Marker:     graph.MarkerStyle(p.CutMarkers),
		})
	}

	align := graph.AlignEnd
	if p.Align == config.AlignMidpoint {
		align = graph.AlignMidpoint
	}

	overlayParams := overlay.Params{
		MarkBeats:     p.MarkBeats,
		Pulse:         p.Pulse,
		Bloom:         p.Bloom,
		Counter:       p.Counter,
		BeatMult:      p.BeatMult,
		OverlayPhaseS: p.OverlayPhase,
		OverlayGuardS: p.OverlayGuard,
		PulseDurS:     p.PulseDur,
		PulseSat:      p.PulseSat,
		PulseBright:   p.PulseBright,
		BloomSigma:    p.BloomSigma,
		BloomDurS:     p.BloomDur,
		CounterSize:   strconv.FormatFloat(p.CounterSize, 'f', -1, 64),
		CounterPos:    p.CounterPos,
		MaskScope:     graph.MaskScope(p.MaskScope),
	}
	landings := make([]float64, 0, n)
	for _, c := range pl.Cuts {
		landings = append(landings, c.TimeS)
	}
	events := overlay.Build(pl.PreparedBeats, landings, overlayParams)

	return graph.RenderSpec{
		Mode:       mode,
		Boundaries: boundaries,
		Align:      align,
		XfadeMinS:  p.XfadeMin,
		FPS:        float64(p.FPS),
		Width:      p.Width,
		Height:     p.Height,
		PixFmt:     "yuv420p",
		Overlays:   events,
	}
}

func encode(ctx context.Context, p config.Params, pl *plan.Plan, rs graph.RenderSpec, wd *workdir.Dir, logger *slog.Logger) (string, string, error) {
	root, diags := graph.Build(pl.Images, pl.DurationsS, rs)
	for _, d := range diags {
		if !d.Safe {
			logger.Debug("boundary fell back to hard cut", "index", d.Index, "reason", d.Reason)
		}
	}
	// No CLI flag supplies a mask source and no pipeline stage generates
	// one, so MaskSource is empty here and WithScope returns root
	// unchanged whatever --mask-scope says.
	root = overlay.WithScope(root, overlay.Params{MaskScope: graph.MaskScope(p.MaskScope)})

	text, rootLabel := graph.PrintFilterGraphWithRoot(root)
	if err := wd.WriteGraph(text); err != nil {
		return "", "", fmt.Errorf("%w: write graph.txt: %v", errIO, err)
	}

	inv := graph.Invocation{
		AudioPath:      p.AudioFile,
		FilterScript:   wd.GraphPath(),
		OutputVideoTag: rootLabel,
		OutputPath:     p.Out,
		FPS:            float64(p.FPS),
		NoAudio:        p.NoAudio,
		Verbose:        p.Verbose,
	}
	args := graph.EncodeArgs(inv)

	if err := encodeproc.Run(ctx, encodeproc.Options{
		Bin:    args[0],
		Args:   args[1:],
		Logger: logger,
	}); err != nil {
		return "", "", fmt.Errorf("%w: %v", errEncoder, err)
	}
	return rootLabel, p.Out, nil
}

func paramsSnapshot(p config.Params) map[string]any {
	return map[string]any{
		"strategy":       p.Strategy,
		"period_min":     p.PeriodMin,
		"period_max":     p.PeriodMax,
		"target":         p.Target,
		"grace":          p.Grace,
		"min_gap":        p.MinGap,
		"phase":          p.Phase,
		"strict":         p.Strict,
		"all_beats":      p.AllBeats,
		"hardcuts":       p.Hardcuts,
		"transition":     p.Transition,
		"xfade":          p.Xfade,
		"xfade_min":      p.XfadeMin,
		"align":          p.Align,
		"frame_quantize": p.FrameQuantize,
		"shuffle":        p.Shuffle,
		"seed":           p.Seed,
		"image_loop":     p.ImageLoop,
	}
}

// probeAudioEnd is a thin wrapper over ffprobe, kept deliberately
// minimal: the audio-duration probe is treated as an external,
// interface-only collaborator, not meant to grow into a general
// media-inspection layer.
func probeAudioEnd(ctx context.Context, audioPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}
