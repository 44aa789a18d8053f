package config

import "fmt"

// preset is a sparse set of field overrides, applied only to fields
// the user left at their default: Apply is a pure function of
// (user params, preset) to effective params, tracked with a per-field
// was-defaulted comparison rather than a mutable global parameter
// object.
type preset struct {
	name  string
	apply func(p *Params)
}

var presets = map[string]preset{
	"music-video": {
		name: "music-video",
		apply: func(p *Params) {
			p.PeriodMin, p.PeriodMax, p.Target = 3.0, 6.0, 4.0
			p.Strategy = StrategyHybrid
			p.Transition = "fade"
			p.Xfade = 0.4
			p.MarkBeats = true
			p.Pulse = true
		},
	},
	"hypercut": {
		name: "hypercut",
		apply: func(p *Params) {
			p.PeriodMin, p.PeriodMax, p.Target = 0.2, 0.6, 0.35
			p.Strategy = StrategyAll
			p.AllBeats = true
			p.Hardcuts = true
			p.MinGap = 0.12
		},
	},
	"slow-cinematic": {
		name: "slow-cinematic",
		apply: func(p *Params) {
			p.PeriodMin, p.PeriodMax, p.Target = 8.0, 16.0, 11.0
			p.Strategy = StrategyDownbeat
			p.Transition = "smoothleft"
			p.Xfade = 1.2
			p.Align = AlignMidpoint
		},
	},
	"documentary": {
		name: "documentary",
		apply: func(p *Params) {
			p.PeriodMin, p.PeriodMax, p.Target = 6.0, 12.0, 8.5
			p.Strategy = StrategyNearest
			p.Transition = "dissolve"
			p.Xfade = 0.6
			p.MarkBeats = false
		},
	},
	"edm-strobe": {
		name: "edm-strobe",
		apply: func(p *Params) {
			p.PeriodMin, p.PeriodMax, p.Target = 0.4, 1.2, 0.5
			p.Strategy = StrategyEnergy
			p.Hardcuts = false
			p.Transition = "pixelize"
			p.Xfade = 0.08
			p.MarkBeats = true
			p.Pulse = true
			p.PulseDur = 0.06
			p.Bloom = true
			p.BloomDur = 0.08
			p.CutMarkers = "whitepop"
		},
	},
}

// PresetNames lists the available preset names for --help / validation.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	return names
}

// Apply layers the named preset onto p in place, touching only fields
// whose flag the caller did not explicitly set (per touched). After
// layering, min-gap is auto-raised to cover the effective crossfade
// safety margin; hard-cut renders have no crossfade to protect, so
// they keep their configured min-gap as-is.
func Apply(p *Params, touched map[string]bool, name string) error {
	if name == "" {
		raiseMinGap(p)
		return nil
	}

	pr, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}

	defaults := Defaults()
	shadow := *p
	pr.apply(&shadow)

	for _, f := range presetFields {
		if touched[f.flag] {
			continue // explicit flag always wins
		}
		if f.get(&defaults) != f.get(p) {
			continue // already non-default from an earlier Apply call
		}
		f.set(p, f.get(&shadow))
	}

	raiseMinGap(p)
	return nil
}

func raiseMinGap(p *Params) {
	floor := 2*p.Xfade + 0.05
	if !p.Hardcuts && p.MinGap < floor {
		p.MinGap = floor
	}
}

// presetField describes one field eligible for preset layering, with
// untyped get/set so Apply can diff against Defaults() generically.
type presetField struct {
	flag string
	get  func(*Params) any
	set  func(*Params, any)
}

var presetFields = []presetField{
	{"period-min", func(p *Params) any { return p.PeriodMin }, func(p *Params, v any) { p.PeriodMin = v.(float64) }},
	{"period-max", func(p *Params) any { return p.PeriodMax }, func(p *Params, v any) { p.PeriodMax = v.(float64) }},
	{"target", func(p *Params) any { return p.Target }, func(p *Params, v any) { p.Target = v.(float64) }},
	{"strategy", func(p *Params) any { return p.Strategy }, func(p *Params, v any) { p.Strategy = v.(string) }},
	{"all-beats", func(p *Params) any { return p.AllBeats }, func(p *Params, v any) { p.AllBeats = v.(bool) }},
	{"hardcuts", func(p *Params) any { return p.Hardcuts }, func(p *Params, v any) { p.Hardcuts = v.(bool) }},
	{"transition", func(p *Params) any { return p.Transition }, func(p *Params, v any) { p.Transition = v.(string) }},
	{"xfade", func(p *Params) any { return p.Xfade }, func(p *Params, v any) { p.Xfade = v.(float64) }},
	{"align", func(p *Params) any { return p.Align }, func(p *Params, v any) { p.Align = v.(string) }},
	{"min-gap", func(p *Params) any { return p.MinGap }, func(p *Params, v any) { p.MinGap = v.(float64) }},
	{"mark-beats", func(p *Params) any { return p.MarkBeats }, func(p *Params, v any) { p.MarkBeats = v.(bool) }},
	{"pulse", func(p *Params) any { return p.Pulse }, func(p *Params, v any) { p.Pulse = v.(bool) }},
	{"pulse-dur", func(p *Params) any { return p.PulseDur }, func(p *Params, v any) { p.PulseDur = v.(float64) }},
	{"bloom", func(p *Params) any { return p.Bloom }, func(p *Params, v any) { p.Bloom = v.(bool) }},
	{"bloom-dur", func(p *Params) any { return p.BloomDur }, func(p *Params, v any) { p.BloomDur = v.(float64) }},
	{"cut-markers", func(p *Params) any { return p.CutMarkers }, func(p *Params, v any) { p.CutMarkers = v.(string) }},
}
