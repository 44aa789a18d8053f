// Package beatsource is the external-collaborator boundary for beat
// detection: a source yields ordered beat times, plus optional
// per-beat onset-strength and downbeat flags. framebeat treats the
// actual beat detector as interface-only: any component producing
// ascending instants in seconds will do.
package beatsource

import (
	"context"

	"github.com/framebeat/framebeat/internal/beat"
)

// Result is what a BeatSource yields for one audio file: the raw beat
// instants (unprepared; beat.Prepare still has to run on them) and
// the audio's end time in seconds.
type Result struct {
	Beats     beat.Raw
	AudioEndS float64
}

// Source abstracts the beat-detection backend: a real implementation
// talks to an external process; Synthetic exists for environments
// without one and for deterministic tests.
type Source interface {
	Detect(ctx context.Context, audioPath string) (Result, error)
	Close() error
}
