// Package graph is a small compiler from (images, cuts, transition
// policy) to a side-effect-free instruction stream for an external
// encoder. The renderable result is modelled as a small AST
// (Source/Concat/Xfade/Format/Overlay/WithMask) with a single printer
// that emits the filter-graph text deterministically.
package graph

// Node is any element of the filter graph AST.
type Node interface{ isNode() }

// Source is one still image held on screen for DurationS seconds.
type Source struct {
	Image     string
	DurationS float64
}

func (Source) isNode() {}

// Concat chains children end-to-end with hard cuts (no overlap).
type Concat struct {
	Children []Node
}

func (Concat) isNode() {}

// Xfade cross-dissolves from Lhs into Rhs starting OffsetS into the
// running composite, over DurationS seconds, using the named
// Transition's encoder identifier.
type Xfade struct {
	Lhs, Rhs   Node
	Transition Transition
	DurationS  float64
	OffsetS    float64
}

func (Xfade) isNode() {}

// Format is the single post-concat pass: colour space, pixel format,
// frame rate, and scale-and-pad to the target dimensions.
type Format struct {
	Child  Node
	Width  int
	Height int
	FPS    float64
	PixFmt string
}

func (Format) isNode() {}

// OverlayEvent is one timed overlay instant.
type OverlayEvent struct {
	TimeS  float64
	Kind   OverlayKind
	Params map[string]string
}

// OverlayKind enumerates the overlay composer's event types.
type OverlayKind string

const (
	OverlayBeatTick   OverlayKind = "beat_tick"
	OverlayPulse      OverlayKind = "pulse"
	OverlayBloom      OverlayKind = "bloom"
	OverlayCounter    OverlayKind = "counter"
	OverlayWhitepop   OverlayKind = "whitepop"
	OverlayBlackflash OverlayKind = "blackflash"
)

// Overlay composes timed events onto Child. Events must be sorted by
// TimeS before printing.
type Overlay struct {
	Child  Node
	Events []OverlayEvent
}

func (Overlay) isNode() {}

// MaskScope restricts an overlay to the foreground or background of a
// precomputed alpha mask, or applies to the whole frame.
type MaskScope string

const (
	ScopeNone       MaskScope = "none"
	ScopeForeground MaskScope = "foreground"
	ScopeBackground MaskScope = "background"
)

// WithMask wraps Child so the printer expands it to the
// alpha-merge-then-overlay-back idiom. When MaskSource is empty the
// scope silently degrades to ScopeNone.
type WithMask struct {
	Child      Node
	Scope      MaskScope
	MaskSource string
}

func (WithMask) isNode() {}
