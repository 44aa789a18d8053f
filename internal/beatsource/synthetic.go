package beatsource

import (
	"context"
	"log/slog"

	"github.com/framebeat/framebeat/internal/beat"
)

// Synthetic is the deterministic stand-in used in tests and in
// environments without a real beat detector: a placeholder grid rather
// than actual audio analysis. Every call with the same BPM and
// AudioEndS produces byte-identical output.
type Synthetic struct {
	BPM       float64
	AudioEndS float64
	logger    *slog.Logger
}

// NewSynthetic builds a Synthetic source, warning once at construction
// time since its output is never real analysis.
func NewSynthetic(bpm, audioEndS float64, logger *slog.Logger) *Synthetic {
	if logger != nil {
		logger.Warn("using synthetic beat source: results are a uniform placeholder grid, not real detection")
	}
	return &Synthetic{BPM: bpm, AudioEndS: audioEndS, logger: logger}
}

func (s *Synthetic) Detect(_ context.Context, _ string) (Result, error) {
	return Result{Beats: placeholderBeats(s.BPM, s.AudioEndS), AudioEndS: s.AudioEndS}, nil
}

func (s *Synthetic) Close() error { return nil }

// placeholderBeats generates a uniform grid at bpm, flagging every
// fourth beat a downbeat.
func placeholderBeats(bpm, durationS float64) beat.Raw {
	if bpm <= 0 {
		return beat.Raw{}
	}
	interval := 60.0 / bpm
	n := int(durationS / interval)

	raw := beat.Raw{
		Times:      make([]float64, n),
		IsDownbeat: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		raw.Times[i] = float64(i) * interval
		raw.IsDownbeat[i] = i%4 == 0
	}
	return raw
}
