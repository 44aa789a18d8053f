package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// printState accumulates filter_complex label assignments as the tree
// is walked depth-first; labels are allocated in visitation order so
// the same tree always prints the same text for the same input graph.
type printState struct {
	lines  []string
	labels int
}

func (ps *printState) newLabel() string {
	ps.labels++
	return fmt.Sprintf("v%d", ps.labels)
}

func (ps *printState) emit(format string, args ...any) {
	ps.lines = append(ps.lines, fmt.Sprintf(format, args...))
}

// PrintFilterGraph renders the AST to the ffmpeg filter_complex script
// text that gets written to a side-file and referenced by path, to
// keep the command line short regardless of how many segments the
// graph has.
func PrintFilterGraph(root Node) string {
	text, _ := PrintFilterGraphWithRoot(root)
	return text
}

// PrintFilterGraphWithRoot behaves like PrintFilterGraph but also
// returns the label of the graph's final output node, which the
// caller needs for the encoder's -map flag.
func PrintFilterGraphWithRoot(root Node) (string, string) {
	ps := &printState{}
	rootLabel := walk(ps, root)
	return strings.Join(ps.lines, "\n") + "\n", rootLabel
}

func walk(ps *printState, n Node) string {
	switch v := n.(type) {
	case Source:
		label := ps.newLabel()
		ps.emit("movie=%s,loop=1,setpts=N/(FRAME_RATE*TB)[%s_raw];"+
			"[%s_raw]trim=duration=%.6f[%s]", v.Image, label, label, v.DurationS, label)
		return label

	case Concat:
		labels := make([]string, len(v.Children))
		for i, c := range v.Children {
			labels[i] = walk(ps, c)
		}
		out := ps.newLabel()
		var in strings.Builder
		for _, l := range labels {
			in.WriteString("[" + l + "]")
		}
		ps.emit("%sconcat=n=%d:v=1:a=0[%s]", in.String(), len(labels), out)
		return out

	case Xfade:
		lhs := walk(ps, v.Lhs)
		rhs := walk(ps, v.Rhs)
		out := ps.newLabel()
		id, err := EncoderIdentifier(v.Transition)
		if err != nil {
			id = string(TransitionFade)
		}
		ps.emit("[%s][%s]xfade=transition=%s:duration=%.6f:offset=%.6f[%s]",
			lhs, rhs, id, v.DurationS, v.OffsetS, out)
		return out

	case Format:
		in := walk(ps, v.Child)
		out := ps.newLabel()
		ps.emit("[%s]fps=%s,scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2,format=%s[%s]",
			in, trimFloat(v.FPS), v.Width, v.Height, v.Width, v.Height, v.PixFmt, out)
		return out

	case Overlay:
		in := walk(ps, v.Child)
		out := in
		for _, e := range v.Events {
			next := ps.newLabel()
			ps.emit("[%s]%s[%s]", out, overlayExpr(e), next)
			out = next
		}
		return out

	case WithMask:
		scope := v.Scope
		if v.MaskSource == "" {
			scope = ScopeNone
		}
		ov, hasOverlay := v.Child.(Overlay)
		if scope == ScopeNone || !hasOverlay {
			// Without a mask (or with nothing to scope) the wrapper is
			// transparent.
			return walk(ps, v.Child)
		}

		// Scoped overlays: split the base, run the overlay chain on one
		// branch, alphamerge it with the mask, then overlay the masked
		// result back onto the untouched base.
		base := walk(ps, ov.Child)
		keep, work := ps.newLabel(), ps.newLabel()
		ps.emit("[%s]split[%s][%s]", base, keep, work)
		cur := work
		for _, e := range ov.Events {
			next := ps.newLabel()
			ps.emit("[%s]%s[%s]", cur, overlayExpr(e), next)
			cur = next
		}
		mask := v.MaskSource
		if scope == ScopeBackground {
			inv := ps.newLabel()
			ps.emit("[%s]negate[%s]", mask, inv)
			mask = inv
		}
		merged := ps.newLabel()
		ps.emit("[%s][%s]alphamerge[%s]", cur, mask, merged)
		out := ps.newLabel()
		ps.emit("[%s][%s]overlay[%s]", keep, merged, out)
		return out

	default:
		return ps.newLabel()
	}
}

// overlayExpr renders one overlay event to its drawtext/eq/gblur
// filter fragment. Kept deliberately simple: the printer's job is a
// faithful, deterministic instruction stream, not a video-effects
// library.
func overlayExpr(e OverlayEvent) string {
	switch e.Kind {
	case OverlayBeatTick:
		return fmt.Sprintf("drawbox=enable='between(t,%.6f,%.6f)':color=white@0.8:t=fill", e.TimeS, e.TimeS+0.05)
	case OverlayPulse:
		return fmt.Sprintf("eq=enable='between(t,%.6f,%.6f)':saturation=%s:brightness=%s",
			e.TimeS, e.TimeS+durOr(e, 0.08), paramOr(e, "sat", "1.4"), paramOr(e, "bright", "1.15"))
	case OverlayBloom:
		return fmt.Sprintf("gblur=enable='between(t,%.6f,%.6f)':sigma=%s", e.TimeS, e.TimeS+durOr(e, 0.08), paramOr(e, "sigma", "6"))
	case OverlayCounter:
		x, y := counterPosition(paramOr(e, "pos", "bottom-right"))
		return fmt.Sprintf("drawtext=enable='gte(t,%.6f)':text='%s':fontsize=%s:fontcolor=white:x=%s:y=%s",
			e.TimeS, paramOr(e, "value", "0"), paramOr(e, "size", "48"), x, y)
	case OverlayWhitepop:
		return fmt.Sprintf("eq=enable='between(t,%.6f,%.6f)':brightness=1.0", e.TimeS, e.TimeS+1.0/30)
	case OverlayBlackflash:
		return fmt.Sprintf("eq=enable='between(t,%.6f,%.6f)':brightness=-1.0", e.TimeS, e.TimeS+1.0/30)
	default:
		return "null"
	}
}

func durOr(e OverlayEvent, def float64) float64 {
	if v, ok := e.Params["dur"]; ok {
		if f, err := strconvParseFloat(v); err == nil {
			return f
		}
	}
	return def
}

func paramOr(e OverlayEvent, key, def string) string {
	if v, ok := e.Params[key]; ok {
		return v
	}
	return def
}

// counterPosition maps a named screen corner to drawtext x/y
// expressions, with a 16px margin against the text's own box.
func counterPosition(pos string) (x, y string) {
	switch pos {
	case "top-left":
		return "16", "16"
	case "top-right":
		return "w-text_w-16", "16"
	case "bottom-left":
		return "16", "h-text_h-16"
	default: // bottom-right
		return "w-text_w-16", "h-text_h-16"
	}
}

func strconvParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}
