// Package plan holds the frozen data model shared across the render
// pipeline: Cut, Plan and PeriodWindow. It has no behaviour of its own
// beyond what's needed to keep the model's invariants self-describing;
// the planner, duration builder, image binder and graph builder each
// produce or consume it without mutating what earlier stages wrote.
package plan

// WindowUsed classifies how a Cut's time was selected relative to the
// active PeriodWindow.
type WindowUsed string

const (
	WindowNormal   WindowUsed = "normal"
	WindowGrace    WindowUsed = "grace"
	WindowFallback WindowUsed = "fallback"
)

// PeriodWindow is the admissible region for the next cut, derived from
// CLI parameters once at planner start.
type PeriodWindow struct {
	MinS    float64
	MaxS    float64
	TargetS float64
	GraceS  float64
}

// Cut is one chosen beat time at which the visible image changes.
type Cut struct {
	TimeS      float64
	BeatIndex  int
	WindowUsed WindowUsed
	Strategy   string
}

// Plan is the frozen, serialisable description of a render: prepared
// beats, selected cuts, durations, images and the parameters that
// produced them.
type Plan struct {
	Cuts          []Cut
	AudioEndS     float64
	PreparedBeats []float64
	Images        []string
	DurationsS    []float64

	// Parameters snapshot, stored verbatim for PlanIO round-tripping and
	// kept as a generic map so planio doesn't need a dependency on
	// internal/config.
	Params map[string]any
}

// Segments returns the number of segments a fully-bound plan describes,
// i.e. len(Cuts) assuming a trailing implicit end-of-audio boundary, or
// 0 for an empty plan.
func (p *Plan) Segments() int {
	if len(p.Cuts) == 0 {
		return 0
	}
	return len(p.Cuts)
}
