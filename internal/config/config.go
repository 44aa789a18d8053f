// Package config parses the framebeat CLI surface into a Params struct
// and layers named presets on top of it without clobbering flags the
// user actually set.
package config

import (
	"flag"
	"fmt"
	"os"
)

// InvalidParameterError reports a parameter value that is out of
// range or otherwise self-contradictory, caught before any planning
// or rendering work starts.
type InvalidParameterError struct {
	Param   string
	Message string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Message)
}

// Strategy names accepted by --strategy.
const (
	StrategyNearest  = "nearest"
	StrategyEnergy   = "energy"
	StrategyDownbeat = "downbeat"
	StrategyHybrid   = "hybrid"
	StrategyAll      = "all"
)

// Align modes accepted by --align.
const (
	AlignEnd      = "end"
	AlignMidpoint = "midpoint"
)

// Frame quantize modes accepted by --frame-quantize.
const (
	QuantizeNearest = "nearest"
	QuantizeFloor   = "floor"
	QuantizeCeil    = "ceil"
)

// Mask scopes accepted by --mask-scope.
const (
	MaskScopeNone       = "none"
	MaskScopeForeground = "foreground"
	MaskScopeBackground = "background"
)

// Params is the fully-resolved set of planning, rendering, overlay,
// image-handling and I/O parameters for one render. Field names track
// the CLI flags one-to-one.
type Params struct {
	// Positional.
	AudioFile string
	ImagesDir string

	// Planning.
	PeriodMin  float64
	PeriodMax  float64
	Target     float64
	Grace      float64
	MinGap     float64
	Phase      float64
	Strict     bool
	Strategy   string
	AllBeats   bool
	AudioEnd   float64 // 0 means "probe it"
	MaxSeconds float64 // 0 means unbounded

	// Rendering.
	Hardcuts      bool
	Transition    string
	Xfade         float64
	XfadeMin      float64
	Align         string
	FrameQuantize string

	// Overlays.
	MarkBeats    bool
	Pulse        bool
	PulseSat     float64
	PulseBright  float64
	PulseDur     float64
	Bloom        bool
	BloomSigma   float64
	BloomDur     float64
	Counter      bool
	CounterSize  float64
	CounterPos   string
	BeatMult     int
	OverlayPhase float64
	OverlayGuard float64
	CutMarkers   string
	MaskScope    string

	// Image handling.
	Shuffle   bool
	Seed      int64
	ImageLoop bool

	// I/O.
	Workdir     string
	Out         string
	PlanOut     string
	PlanIn      string
	NoAudio     bool
	Verbose     bool
	Width       int
	Height      int
	FPS         int
	KeepWorkdir bool

	// Preset selection; applied by Apply after parsing.
	Preset string

	// LogLevel controls the slog handler level in cmd/framebeat.
	LogLevel string
}

// Defaults returns the parameter set with every flag at its zero/default
// value, matching the flag.FlagSet defaults below field for field. It is
// also the baseline that Apply diffs user input against.
func Defaults() Params {
	return Params{
		PeriodMin:     5.0,
		PeriodMax:     10.0,
		Target:        7.5,
		Grace:         0.0,
		MinGap:        0.12,
		Phase:         0.0,
		Strict:        false,
		Strategy:      StrategyNearest,
		AllBeats:      false,
		AudioEnd:      0,
		MaxSeconds:    0,
		Hardcuts:      false,
		Transition:    "fade",
		Xfade:         0.35,
		XfadeMin:      0.1,
		Align:         AlignEnd,
		FrameQuantize: QuantizeNearest,
		MarkBeats:     false,
		Pulse:         false,
		PulseSat:      1.4,
		PulseBright:   1.15,
		PulseDur:      0.12,
		Bloom:         false,
		BloomSigma:    12.0,
		BloomDur:      0.18,
		Counter:       false,
		CounterSize:   48,
		CounterPos:    "bottom-right",
		BeatMult:      1,
		OverlayPhase:  0,
		OverlayGuard:  0.05,
		CutMarkers:    "",
		MaskScope:     MaskScopeNone,
		Shuffle:       false,
		Seed:          0,
		ImageLoop:     true,
		Workdir:       "",
		Out:           "out.mp4",
		PlanOut:       "",
		PlanIn:        "",
		NoAudio:       false,
		Verbose:       false,
		Width:         1920,
		Height:        1080,
		FPS:           30,
		KeepWorkdir:   false,
		Preset:        "",
		LogLevel:      "info",
	}
}

// Parse builds a flag.FlagSet over Defaults, parses args, and returns the
// resolved Params along with the set of flag names the user explicitly
// touched (for preset layering, see Apply).
func Parse(args []string) (Params, map[string]bool, error) {
	p := Defaults()
	fs := flag.NewFlagSet("framebeat", flag.ContinueOnError)

	fs.Float64Var(&p.PeriodMin, "period-min", p.PeriodMin, "minimum seconds between cuts")
	fs.Float64Var(&p.PeriodMax, "period-max", p.PeriodMax, "maximum seconds between cuts")
	fs.Float64Var(&p.Target, "target", p.Target, "target seconds between cuts")
	fs.Float64Var(&p.Grace, "grace", p.Grace, "one-time symmetric window expansion on strict failure")
	fs.Float64Var(&p.MinGap, "min-gap", p.MinGap, "minimum gap enforced between consecutive cuts")
	fs.Float64Var(&p.Phase, "phase", p.Phase, "seconds added to every detected beat before preparation")
	fs.BoolVar(&p.Strict, "strict", p.Strict, "fail with NoBeatInWindow instead of falling back out-of-window")
	fs.StringVar(&p.Strategy, "strategy", p.Strategy, "nearest|energy|downbeat|hybrid (ignored if --all-beats)")
	fs.BoolVar(&p.AllBeats, "all-beats", p.AllBeats, "cut on every beat above min-cut-gap, bypassing the window")
	fs.Float64Var(&p.AudioEnd, "audio-end", p.AudioEnd, "audio duration in seconds (0 = probe)")
	fs.Float64Var(&p.MaxSeconds, "max-seconds", p.MaxSeconds, "cap the render to this many seconds (0 = unbounded)")

	fs.BoolVar(&p.Hardcuts, "hardcuts", p.Hardcuts, "use the hard-cut concat backend instead of crossfades")
	fs.StringVar(&p.Transition, "transition", p.Transition, "named transition from the palette (internal/graph)")
	fs.Float64Var(&p.Xfade, "xfade", p.Xfade, "crossfade duration in seconds")
	fs.Float64Var(&p.XfadeMin, "xfade-min", p.XfadeMin, "minimum crossfade duration accepted as safe")
	fs.StringVar(&p.Align, "align", p.Align, "end|midpoint")
	fs.StringVar(&p.FrameQuantize, "frame-quantize", p.FrameQuantize, "nearest|floor|ceil")

	fs.BoolVar(&p.MarkBeats, "mark-beats", p.MarkBeats, "draw beat tick overlay")
	fs.BoolVar(&p.Pulse, "pulse", p.Pulse, "enable pulse overlay")
	fs.Float64Var(&p.PulseSat, "pulse-sat", p.PulseSat, "pulse saturation multiplier")
	fs.Float64Var(&p.PulseBright, "pulse-bright", p.PulseBright, "pulse brightness multiplier")
	fs.Float64Var(&p.PulseDur, "pulse-dur", p.PulseDur, "pulse duration in seconds")
	fs.BoolVar(&p.Bloom, "bloom", p.Bloom, "enable bloom overlay")
	fs.Float64Var(&p.BloomSigma, "bloom-sigma", p.BloomSigma, "bloom gaussian sigma")
	fs.Float64Var(&p.BloomDur, "bloom-dur", p.BloomDur, "bloom duration in seconds")
	fs.BoolVar(&p.Counter, "counter", p.Counter, "enable beat counter overlay")
	fs.Float64Var(&p.CounterSize, "counter-size", p.CounterSize, "counter font size")
	fs.StringVar(&p.CounterPos, "counter-pos", p.CounterPos, "counter screen position")
	fs.IntVar(&p.BeatMult, "beat-mult", p.BeatMult, "thin beat ticks to every Nth beat")
	fs.Float64Var(&p.OverlayPhase, "overlay-phase", p.OverlayPhase, "seconds to shift overlay events")
	fs.Float64Var(&p.OverlayGuard, "overlay-guard", p.OverlayGuard, "seconds of silence around transitions for tick/pulse/bloom")
	fs.StringVar(&p.CutMarkers, "cut-markers", p.CutMarkers, "marker style for unsafe-boundary hard cuts: whitepop|blackflash|pulse|bloom")
	fs.StringVar(&p.MaskScope, "mask-scope", p.MaskScope, "none|foreground|background")

	fs.BoolVar(&p.Shuffle, "shuffle", p.Shuffle, "shuffle image order with a seeded permutation")
	fs.Int64Var(&p.Seed, "seed", p.Seed, "shuffle seed")
	fs.BoolVar(&p.ImageLoop, "image-loop", p.ImageLoop, "loop images modulo count instead of truncating cuts")

	fs.StringVar(&p.Workdir, "workdir", p.Workdir, "scratch directory (default: temp dir under render nonce)")
	fs.StringVar(&p.Out, "out", p.Out, "output video path")
	fs.StringVar(&p.PlanOut, "plan-out", p.PlanOut, "write the resolved Plan document to this path")
	fs.StringVar(&p.PlanIn, "plan-in", p.PlanIn, "re-render from a previously written Plan document")
	fs.BoolVar(&p.NoAudio, "no-audio", p.NoAudio, "omit the audio track from the output")
	fs.BoolVar(&p.Verbose, "verbose", p.Verbose, "verbose logging")
	fs.IntVar(&p.Width, "width", p.Width, "output width in pixels")
	fs.IntVar(&p.Height, "height", p.Height, "output height in pixels")
	fs.IntVar(&p.FPS, "fps", p.FPS, "output frame rate")
	fs.BoolVar(&p.KeepWorkdir, "keep-workdir", p.KeepWorkdir, "preserve the workdir after a successful render")

	fs.StringVar(&p.Preset, "preset", p.Preset, "music-video|hypercut|slow-cinematic|documentary|edm-strobe")
	fs.StringVar(&p.LogLevel, "log-level", p.LogLevel, "debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Params{}, nil, err
	}

	rest := fs.Args()
	switch len(rest) {
	case 2:
		p.AudioFile, p.ImagesDir = rest[0], rest[1]
	case 0, 1:
		if p.PlanIn == "" {
			return Params{}, nil, fmt.Errorf("usage: framebeat <audio_file> <images_dir> [flags]")
		}
	default:
		return Params{}, nil, fmt.Errorf("unexpected extra arguments: %v", rest[2:])
	}

	touched := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { touched[f.Name] = true })

	return p, touched, nil
}

// Validate checks the parameter invariants that must hold before any
// planning or rendering work starts: the period window must be a
// non-empty, non-negative interval with the target inside it, and the
// grace expansion must not be negative. It returns an
// *InvalidParameterError on the first violation found.
func (p Params) Validate() error {
	if p.PeriodMin <= 0 {
		return &InvalidParameterError{Param: "period-min", Message: "must be greater than zero"}
	}
	if p.PeriodMax < p.PeriodMin {
		return &InvalidParameterError{Param: "period-max", Message: "must be greater than or equal to period-min"}
	}
	if p.Target < p.PeriodMin || p.Target > p.PeriodMax {
		return &InvalidParameterError{Param: "target", Message: "must fall within [period-min, period-max]"}
	}
	if p.Grace < 0 {
		return &InvalidParameterError{Param: "grace", Message: "must not be negative"}
	}
	return nil
}

// DefaultDataDir resolves the directory holding the beat cache
// database (internal/cache), honouring FRAMEBEAT_DATA_DIR when set.
func DefaultDataDir() string {
	if dir := os.Getenv("FRAMEBEAT_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".framebeat"
	}
	return home + "/.framebeat"
}
