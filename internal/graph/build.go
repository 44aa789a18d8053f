package graph

// Mode selects the render backend.
type Mode string

const (
	ModeHardcut   Mode = "hardcut"
	ModeCrossfade Mode = "crossfade"
)

// Align controls where a transition's offset lands relative to the
// cut it straddles.
type Align string

const (
	AlignEnd      Align = "end"
	AlignMidpoint Align = "midpoint"
)

// BoundarySpec is the requested transition for one boundary between
// two consecutive segments.
type BoundarySpec struct {
	Transition Transition
	DurationS  float64
	Marker     MarkerStyle
}

// RenderSpec is everything the GraphBuilder needs beyond the bound
// images and durations.
type RenderSpec struct {
	Mode       Mode
	Boundaries []BoundarySpec // length = len(images)-1
	Align      Align
	XfadeMinS  float64
	FPS        float64
	Width      int
	Height     int
	PixFmt     string
	Overlays   []OverlayEvent
}

// BoundaryDiagnostic reports what the builder decided for one
// boundary, so callers can log or test against it.
type BoundaryDiagnostic struct {
	Index  int
	Safe   bool
	Reason string
}

// Build chooses the hard-cut backend or the crossfade backend (with
// per-boundary and global fallback) and returns the root AST node
// plus per-boundary diagnostics.
func Build(images []string, durationsS []float64, rs RenderSpec) (Node, []BoundaryDiagnostic) {
	if len(images) == 0 {
		return nil, nil
	}
	if len(images) == 1 || rs.Mode == ModeHardcut || len(rs.Boundaries) == 0 {
		return buildHardcut(images, durationsS, rs), nil
	}

	diags := boundaryDiagnostics(durationsS, rs)
	if allUnsafe(diags) {
		// Every boundary unsafe degrades the whole render to hard-cut.
		return buildHardcut(images, durationsS, rs), diags
	}

	return buildCrossfade(images, durationsS, rs, diags), diags
}

// boundaryDiagnostics computes the safety of every boundary: a
// boundary is safe iff d_i >= 2*x_i+0.05 and d_{i+1} >= 2*x_i+0.05 and
// x_i >= x_min.
func boundaryDiagnostics(durationsS []float64, rs RenderSpec) []BoundaryDiagnostic {
	out := make([]BoundaryDiagnostic, len(rs.Boundaries))
	for i, b := range rs.Boundaries {
		floor := 2*b.DurationS + 0.05
		safe := durationsS[i] >= floor && durationsS[i+1] >= floor && b.DurationS >= rs.XfadeMinS
		reason := ""
		if !safe {
			reason = "adjacent segment shorter than 2*xfade+0.05, or xfade below xfade_min"
		}
		out[i] = BoundaryDiagnostic{Index: i, Safe: safe, Reason: reason}
	}
	return out
}

func allUnsafe(diags []BoundaryDiagnostic) bool {
	for _, d := range diags {
		if d.Safe {
			return false
		}
	}
	return len(diags) > 0
}

// buildHardcut builds the hard-cut backend: a single Concat of
// Source nodes, one Format pass, overlays composed last.
func buildHardcut(images []string, durationsS []float64, rs RenderSpec) Node {
	children := make([]Node, len(images))
	for i, img := range images {
		children[i] = Source{Image: img, DurationS: durationsS[i]}
	}
	var n Node = Concat{Children: children}
	n = Format{Child: n, Width: rs.Width, Height: rs.Height, FPS: rs.FPS, PixFmt: rs.PixFmt}
	if len(rs.Overlays) > 0 {
		n = Overlay{Child: n, Events: sortedEvents(rs.Overlays)}
	}
	return n
}

// buildCrossfade builds the crossfade backend: a linear chain of
// Xfade nodes, with unsafe boundaries degrading to a hard cut spliced
// into the chain (optionally carrying a one-frame marker).
func buildCrossfade(images []string, durationsS []float64, rs RenderSpec, diags []BoundaryDiagnostic) Node {
	cum := durationsS[0]
	var chain Node = Source{Image: images[0], DurationS: durationsS[0]}

	for i := 1; i < len(images); i++ {
		b := rs.Boundaries[i-1]
		next := Source{Image: images[i], DurationS: durationsS[i]}

		if !diags[i-1].Safe {
			// Per-boundary fallback: splice in as a hard cut; the chain
			// so far becomes one child of a Concat.
			children := []Node{chain, next}
			if mk := markerEvent(b.Marker, cum); mk != nil {
				chain = Overlay{Child: Concat{Children: children}, Events: []OverlayEvent{*mk}}
			} else {
				chain = Concat{Children: children}
			}
			cum += durationsS[i]
			continue
		}

		offset := xfadeOffset(cum, b.DurationS, rs.Align)
		chain = Xfade{
			Lhs:        chain,
			Rhs:        next,
			Transition: b.Transition,
			DurationS:  b.DurationS,
			OffsetS:    offset,
		}
		cum += durationsS[i]
	}

	var n Node = Format{Child: chain, Width: rs.Width, Height: rs.Height, FPS: rs.FPS, PixFmt: rs.PixFmt}
	if len(rs.Overlays) > 0 {
		n = Overlay{Child: n, Events: sortedEvents(rs.Overlays)}
	}
	return n
}

// xfadeOffset computes the transition offset: with align=end the
// transition ends exactly at the running cumulative duration; with
// align=midpoint its centre lands there instead.
func xfadeOffset(cumDurationS, xfadeS float64, align Align) float64 {
	if align == AlignMidpoint {
		return cumDurationS - xfadeS/2
	}
	return cumDurationS - xfadeS
}

func markerEvent(m MarkerStyle, atS float64) *OverlayEvent {
	kind, ok := map[MarkerStyle]OverlayKind{
		MarkerWhitepop:   OverlayWhitepop,
		MarkerBlackflash: OverlayBlackflash,
		MarkerPulse:      OverlayPulse,
		MarkerBloom:      OverlayBloom,
	}[m]
	if !ok {
		return nil
	}
	return &OverlayEvent{TimeS: atS, Kind: kind}
}

// sortedEvents returns events sorted by time, leaving the input
// slice untouched.
func sortedEvents(events []OverlayEvent) []OverlayEvent {
	out := append([]OverlayEvent(nil), events...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].TimeS > out[j].TimeS; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
