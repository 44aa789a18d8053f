// Package planner selects cut times from a prepared beat.Set: starting
// from a target period and walking forward, it picks one beat per
// segment inside an admissible window, by one of a small closed set of
// strategies, with explicit tie-break and failure semantics. The
// planner is a pure function of its inputs: no PRNG, no I/O, no
// shared mutable state.
package planner

import (
	"fmt"
	"math"

	"github.com/framebeat/framebeat/internal/beat"
	"github.com/framebeat/framebeat/internal/plan"
)

// Strategy is a closed tagged variant: degradation (e.g. Energy
// without strengths -> Nearest) is an explicit match arm, not a
// dynamic lookup.
type Strategy string

const (
	Nearest  Strategy = "nearest"
	Energy   Strategy = "energy"
	Downbeat Strategy = "downbeat"
	Hybrid   Strategy = "hybrid"
	AllBeats Strategy = "all"
)

// Options controls one planning run.
type Options struct {
	Strategy   Strategy
	Strict     bool
	MinCutGapS float64
	AudioEndS  float64
	T0         float64 // starting time for the first window; 0 for a render, non-zero for overlay-only replanning
}

// NoBeatInWindowError is returned when strict selection fails even
// after the one-time grace expansion.
type NoBeatInWindowError struct {
	After float64 // the previous cut time (or T0 for the initial cut)
}

func (e *NoBeatInWindowError) Error() string {
	return fmt.Sprintf("no beat in window after %.3fs (strict mode, grace exhausted)", e.After)
}

// Plan runs the per-cut selection state machine, selecting cuts from b
// according to w and opts until the terminal condition
// p + w.MinS > opts.AudioEndS.
func Plan(b beat.Set, w plan.PeriodWindow, opts Options) ([]plan.Cut, error) {
	if opts.Strategy == AllBeats {
		return planAllBeats(b, opts)
	}

	first, err := pickInitial(b, w, opts)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, nil
	}

	cuts := []plan.Cut{*first}
	p := first.TimeS

	for {
		if p+w.MinS > opts.AudioEndS {
			break
		}
		next, err := pickNext(b, w, opts, p)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		cuts = append(cuts, *next)
		p = next.TimeS
	}

	return cuts, nil
}

// pickInitial selects the first cut from window [t0+min, t0+max].
func pickInitial(b beat.Set, w plan.PeriodWindow, opts Options) (*plan.Cut, error) {
	t0 := opts.T0
	lo, hi := w.MinS+t0, w.MaxS+t0
	target := clamp(t0+w.TargetS, lo, hi)

	idxs := indicesInWindow(b, lo, hi, -1, 0)
	if len(idxs) > 0 {
		chosen := chooseByStrategy(b, idxs, target, w, opts.Strategy)
		return cutAt(b, chosen, plan.WindowNormal, opts.Strategy), nil
	}

	if opts.Strict {
		lo2, hi2 := lo-w.GraceS, hi+w.GraceS
		idxs = indicesInWindow(b, lo2, hi2, -1, 0)
		if len(idxs) == 0 {
			return nil, &NoBeatInWindowError{After: t0}
		}
		target2 := clamp(target, lo2, hi2)
		chosen := chooseByStrategy(b, idxs, target2, w, opts.Strategy)
		return cutAt(b, chosen, plan.WindowGrace, opts.Strategy), nil
	}

	// Non-strict: nearest beat after t0, regardless of window.
	chosen := nearestAfter(b, t0, 0, clamp(target, lo, hi))
	if chosen < 0 {
		return nil, nil
	}
	return cutAt(b, chosen, plan.WindowFallback, opts.Strategy), nil
}

// pickNext selects the next cut after previous cut time p.
func pickNext(b beat.Set, w plan.PeriodWindow, opts Options, p float64) (*plan.Cut, error) {
	lo, hi := p+w.MinS, p+w.MaxS
	target := clamp(p+w.TargetS, lo, hi)

	idxs := indicesInWindow(b, lo, hi, p, opts.MinCutGapS)
	if len(idxs) > 0 {
		chosen := chooseByStrategy(b, idxs, target, w, opts.Strategy)
		return cutAt(b, chosen, plan.WindowNormal, opts.Strategy), nil
	}

	if opts.Strict {
		lo2, hi2 := lo-w.GraceS, hi+w.GraceS
		idxs = indicesInWindow(b, lo2, hi2, p, opts.MinCutGapS)
		if len(idxs) == 0 {
			return nil, &NoBeatInWindowError{After: p}
		}
		target2 := clamp(target, lo2, hi2)
		chosen := chooseByStrategy(b, idxs, target2, w, opts.Strategy)
		return cutAt(b, chosen, plan.WindowGrace, opts.Strategy), nil
	}

	chosen := nearestAfter(b, p, opts.MinCutGapS, clamp(target, lo, hi))
	if chosen < 0 {
		return nil, nil
	}
	return cutAt(b, chosen, plan.WindowFallback, opts.Strategy), nil
}

// planAllBeats implements the "all" strategy: every beat above the
// running min-cut-gap becomes its own cut, bypassing the window
// entirely.
func planAllBeats(b beat.Set, opts Options) ([]plan.Cut, error) {
	var cuts []plan.Cut
	p := opts.T0
	for i, t := range b.Times {
		if t-p < opts.MinCutGapS {
			continue
		}
		if t > opts.AudioEndS {
			break
		}
		cuts = append(cuts, plan.Cut{
			TimeS:      t,
			BeatIndex:  i,
			WindowUsed: plan.WindowNormal,
			Strategy:   string(AllBeats),
		})
		p = t
	}
	return cuts, nil
}

// indicesInWindow returns indices of beats in [lo, hi] (inclusive),
// additionally filtered to b.Times[i] > after and
// b.Times[i]-after >= minGap when after >= 0. The strict b > after
// check keeps cut times strictly increasing even with a zero min gap.
func indicesInWindow(b beat.Set, lo, hi, after, minGap float64) []int {
	start, end := b.Between(lo, hi)
	idxs := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		if after >= 0 && (b.Times[i] <= after || b.Times[i]-after < minGap) {
			continue
		}
		idxs = append(idxs, i)
	}
	return idxs
}

// nearestAfter scans the whole BeatSet for the nearest-to-target beat
// strictly beyond after+minGap, used by the non-strict out-of-window
// fallback. Returns -1 if no such beat exists (beats exhausted).
func nearestAfter(b beat.Set, after, minGap, target float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, t := range b.Times {
		if t <= after || t-after < minGap {
			continue
		}
		d := math.Abs(t - target)
		if best == -1 || d < bestDist || (d == bestDist && t < b.Times[best]) {
			best = i
			bestDist = d
		}
	}
	return best
}

// chooseByStrategy picks one index from idxs according to s, applying
// the tie-break rule (smallest |b-target|, then smallest b) within
// every strategy's own candidate narrowing.
func chooseByStrategy(b beat.Set, idxs []int, target float64, w plan.PeriodWindow, s Strategy) int {
	switch s {
	case Energy:
		if len(b.OnsetStrength) == 0 {
			return nearestByTieBreak(b, idxs, target)
		}
		return argmaxStrength(b, idxs)
	case Downbeat:
		half := (w.MaxS - w.MinS) / 2
		if i, ok := bestDownbeatWithin(b, idxs, target, half); ok {
			return i
		}
		return nearestByTieBreak(b, idxs, target)
	case Hybrid:
		half := (w.MaxS - w.MinS) / 2
		if i, ok := bestDownbeatWithin(b, idxs, target, half); ok {
			return i
		}
		if len(b.OnsetStrength) > 0 {
			return argmaxStrength(b, idxs)
		}
		return nearestByTieBreak(b, idxs, target)
	default: // Nearest
		return nearestByTieBreak(b, idxs, target)
	}
}

func nearestByTieBreak(b beat.Set, idxs []int, target float64) int {
	best := idxs[0]
	bestDist := math.Abs(b.Times[best] - target)
	for _, i := range idxs[1:] {
		d := math.Abs(b.Times[i] - target)
		if d < bestDist || (d == bestDist && b.Times[i] < b.Times[best]) {
			best = i
			bestDist = d
		}
	}
	return best
}

func argmaxStrength(b beat.Set, idxs []int) int {
	best := idxs[0]
	bestScore := b.Strength(best)
	for _, i := range idxs[1:] {
		s := b.Strength(i)
		if s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}

func bestDownbeatWithin(b beat.Set, idxs []int, target, half float64) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for _, i := range idxs {
		if !b.Downbeat(i) {
			continue
		}
		d := math.Abs(b.Times[i] - target)
		if d > half {
			continue
		}
		if best == -1 || d < bestDist || (d == bestDist && b.Times[i] < b.Times[best]) {
			best = i
			bestDist = d
		}
	}
	return best, best != -1
}

func cutAt(b beat.Set, idx int, used plan.WindowUsed, s Strategy) *plan.Cut {
	return &plan.Cut{
		TimeS:      b.Times[idx],
		BeatIndex:  idx,
		WindowUsed: used,
		Strategy:   string(s),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
