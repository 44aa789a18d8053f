// Package overlay turns beat times plus user parameters into the
// ordered list of graph.OverlayEvent the GraphBuilder's printer
// renders. It is a pure transform (no I/O, no mutation of its inputs),
// matching the planner/duration/binder stages' synchronous,
// side-effect-free style.
package overlay

import (
	"strconv"

	"github.com/framebeat/framebeat/internal/graph"
)

// Params configures which overlays are active and how.
type Params struct {
	MarkBeats bool
	Pulse     bool
	Bloom     bool
	Counter   bool

	BeatMult      int     // thin beat ticks to every BeatMult'th beat
	OverlayPhaseS float64 // shift beat-tick/pulse/bloom timing
	OverlayGuardS float64 // suppress overlays within this many seconds of a transition landing

	PulseDurS   float64
	PulseSat    float64 // color saturation multiplier applied during the pulse window
	PulseBright float64 // brightness delta applied during the pulse window
	BloomSigma  float64
	BloomDurS   float64

	CounterSize string
	CounterPos  string

	MaskScope  graph.MaskScope
	MaskSource string
}

// Build produces the sorted overlay event stream for one render.
// transitionLandings are the times at which a crossfade's
// midpoint-or-end lands, used to suppress beat overlays that would
// otherwise visually clash with a transition.
func Build(beatTimes []float64, transitionLandings []float64, p Params) []graph.OverlayEvent {
	var events []graph.OverlayEvent

	mult := p.BeatMult
	if mult <= 0 {
		mult = 1
	}

	counter := 0
	for i, b := range beatTimes {
		t := b + p.OverlayPhaseS
		if t < 0 {
			continue
		}

		// The counter keeps incrementing on guarded beats; only the
		// flash-style overlays are suppressed near a transition landing.
		suppressed := nearAnyLanding(t, transitionLandings, p.OverlayGuardS)

		if p.MarkBeats && i%mult == 0 && !suppressed {
			events = append(events, graph.OverlayEvent{TimeS: t, Kind: graph.OverlayBeatTick})
		}
		if p.Pulse && !suppressed {
			events = append(events, graph.OverlayEvent{
				TimeS: t, Kind: graph.OverlayPulse,
				Params: map[string]string{
					"dur":    floatStr(orDefault(p.PulseDurS, 0.08)),
					"sat":    floatStr(orDefault(p.PulseSat, 1.4)),
					"bright": floatStr(orDefault(p.PulseBright, 1.15)),
				},
			})
		}
		if p.Bloom && !suppressed {
			events = append(events, graph.OverlayEvent{
				TimeS: t, Kind: graph.OverlayBloom,
				Params: map[string]string{
					"dur":   floatStr(orDefault(p.BloomDurS, 0.08)),
					"sigma": floatStr(orDefault(p.BloomSigma, 6)),
				},
			})
		}
		if p.Counter {
			counter++
			events = append(events, graph.OverlayEvent{
				TimeS: t, Kind: graph.OverlayCounter,
				Params: map[string]string{
					"value": strconv.Itoa(counter),
					"size":  p.CounterSize,
					"pos":   p.CounterPos,
				},
			})
		}
	}

	return events
}

// WithScope wraps root in graph.WithMask per p's scope, or returns
// root unchanged if no mask source is configured: masks silently
// degrade to no-op when none is available.
func WithScope(root graph.Node, p Params) graph.Node {
	if p.MaskSource == "" || p.MaskScope == graph.ScopeNone {
		return root
	}
	return graph.WithMask{Child: root, Scope: p.MaskScope, MaskSource: p.MaskSource}
}

func nearAnyLanding(t float64, landings []float64, guard float64) bool {
	if guard <= 0 {
		return false
	}
	for _, l := range landings {
		d := t - l
		if d < 0 {
			d = -d
		}
		if d <= guard {
			return true
		}
	}
	return false
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func floatStr(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
