// Package beat holds the BeatSet data model and the preparation
// transform that turns a raw, possibly messy sequence of detected beat
// instants into the clean, strictly increasing sequence every other
// component in framebeat assumes.
package beat

import "sort"

// MinGap is the minimum inter-beat spacing a prepared BeatSet
// guarantees between any two consecutive beats.
const MinGap = 0.12

// Raw is what an external BeatSource hands back: ascending-ish instants
// with optional parallel auxiliary arrays. Preparation does not assume
// Times is sorted.
type Raw struct {
	Times         []float64
	OnsetStrength []float64 // optional; same length as Times if present
	IsDownbeat    []bool    // optional; same length as Times if present
}

// Set is a prepared BeatSet: strictly increasing, non-negative, with
// every consecutive gap >= MinGap. Auxiliary arrays, if present, stay
// aligned to Times.
type Set struct {
	Times         []float64
	OnsetStrength []float64
	IsDownbeat    []bool
}

// Len reports the number of beats.
func (s Set) Len() int { return len(s.Times) }

// Strength returns the onset strength at index i, or 0 if unavailable.
func (s Set) Strength(i int) float64 {
	if i < 0 || i >= len(s.OnsetStrength) {
		return 0
	}
	return s.OnsetStrength[i]
}

// Downbeat reports whether beat i is flagged as a downbeat.
func (s Set) Downbeat(i int) bool {
	if i < 0 || i >= len(s.IsDownbeat) {
		return false
	}
	return s.IsDownbeat[i]
}

// Between returns the indices [lo, hi) of beats whose time falls in
// [min, max], inclusive on both ends.
func (s Set) Between(min, max float64) (lo, hi int) {
	lo = sort.Search(len(s.Times), func(i int) bool { return s.Times[i] >= min })
	hi = sort.Search(len(s.Times), func(i int) bool { return s.Times[i] > max })
	return lo, hi
}

// Prepare turns a raw detector result into a clean BeatSet:
// phase-shift, drop negatives, sort, collapse near-duplicate runs to
// the first of the run, and reindex auxiliary arrays consistently. The
// ordering of these steps does not change the result; an empty input
// (or an input that collapses to nothing) is a valid, non-error result.
func Prepare(raw Raw, phaseS float64) Set {
	n := len(raw.Times)
	type beat struct {
		t        float64
		strength float64
		downbeat bool
		hasAux   bool
	}
	shifted := make([]beat, 0, n)
	hasStrength := len(raw.OnsetStrength) == n && n > 0
	hasDownbeat := len(raw.IsDownbeat) == n && n > 0

	for i, t := range raw.Times {
		t += phaseS
		if t < 0 {
			continue
		}
		b := beat{t: t}
		if hasStrength {
			b.strength = raw.OnsetStrength[i]
		}
		if hasDownbeat {
			b.downbeat = raw.IsDownbeat[i]
		}
		shifted = append(shifted, b)
	}

	sort.SliceStable(shifted, func(i, j int) bool { return shifted[i].t < shifted[j].t })

	out := Set{}
	if hasStrength {
		out.OnsetStrength = make([]float64, 0, len(shifted))
	}
	if hasDownbeat {
		out.IsDownbeat = make([]bool, 0, len(shifted))
	}

	for _, b := range shifted {
		if len(out.Times) > 0 && b.t-out.Times[len(out.Times)-1] < MinGap {
			continue // collapse into the representative (first) beat of the run
		}
		out.Times = append(out.Times, b.t)
		if hasStrength {
			out.OnsetStrength = append(out.OnsetStrength, b.strength)
		}
		if hasDownbeat {
			out.IsDownbeat = append(out.IsDownbeat, b.downbeat)
		}
	}

	return out
}
