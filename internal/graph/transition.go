package graph

import "fmt"

// Transition is the closed set of named crossfade transitions: an
// enumerated type with a compile-time table mapping to encoder
// identifiers, with unknown values rejected at parameter parse time.
type Transition string

const (
	TransitionFade        Transition = "fade"
	TransitionWipeLeft    Transition = "wipeleft"
	TransitionWipeRight   Transition = "wiperight"
	TransitionWipeUp      Transition = "wipeup"
	TransitionWipeDown    Transition = "wipedown"
	TransitionSlideLeft   Transition = "slideleft"
	TransitionSlideRight  Transition = "slideright"
	TransitionSlideUp     Transition = "slideup"
	TransitionSlideDown   Transition = "slidedown"
	TransitionSmoothLeft  Transition = "smoothleft"
	TransitionSmoothRight Transition = "smoothright"
	TransitionSmoothUp    Transition = "smoothup"
	TransitionSmoothDown  Transition = "smoothdown"
	TransitionCircleOpen  Transition = "circleopen"
	TransitionCircleClose Transition = "circleclose"
	TransitionCircleCrop  Transition = "circlecrop"
	TransitionDiagTL      Transition = "diagtl"
	TransitionDiagTR      Transition = "diagtr"
	TransitionDiagBL      Transition = "diagbl"
	TransitionDiagBR      Transition = "diagbr"
	TransitionHSliceLeft  Transition = "hlslice"
	TransitionHSliceRight Transition = "hrslice"
	TransitionVSliceUp    Transition = "vuslice"
	TransitionVSliceDown  Transition = "vdslice"
	TransitionSqueezeH    Transition = "squeezeh"
	TransitionSqueezeV    Transition = "squeezev"
	TransitionDissolve    Transition = "dissolve"
	TransitionPixelize    Transition = "pixelize"
	TransitionRadial      Transition = "radial"
	TransitionBlur        Transition = "hblur"
	TransitionDistance    Transition = "distance"
)

// encoderIdentifier maps each Transition to the native identifier the
// target encoder's crossfade filter expects. It also doubles as the
// membership test for ValidateTransition.
var encoderIdentifier = map[Transition]string{
	TransitionFade:        "fade",
	TransitionWipeLeft:    "wipeleft",
	TransitionWipeRight:   "wiperight",
	TransitionWipeUp:      "wipeup",
	TransitionWipeDown:    "wipedown",
	TransitionSlideLeft:   "slideleft",
	TransitionSlideRight:  "slideright",
	TransitionSlideUp:     "slideup",
	TransitionSlideDown:   "slidedown",
	TransitionSmoothLeft:  "smoothleft",
	TransitionSmoothRight: "smoothright",
	TransitionSmoothUp:    "smoothup",
	TransitionSmoothDown:  "smoothdown",
	TransitionCircleOpen:  "circleopen",
	TransitionCircleClose: "circleclose",
	TransitionCircleCrop:  "circlecrop",
	TransitionDiagTL:      "diagtl",
	TransitionDiagTR:      "diagtr",
	TransitionDiagBL:      "diagbl",
	TransitionDiagBR:      "diagbr",
	TransitionHSliceLeft:  "hlslice",
	TransitionHSliceRight: "hrslice",
	TransitionVSliceUp:    "vuslice",
	TransitionVSliceDown:  "vdslice",
	TransitionSqueezeH:    "squeezeh",
	TransitionSqueezeV:    "squeezev",
	TransitionDissolve:    "dissolve",
	TransitionPixelize:    "pixelize",
	TransitionRadial:      "radial",
	TransitionBlur:        "hblur",
	TransitionDistance:    "distance",
}

// MinTransitionDurationS is one frame at 25fps. ValidateTransition
// does not use it: it checks durations against one frame at the fps
// it is given (1/fps).
const MinTransitionDurationS = 1.0 / 25.0

// EncoderIdentifier returns the native filter identifier for t, or an
// error if t isn't in the closed palette.
func EncoderIdentifier(t Transition) (string, error) {
	id, ok := encoderIdentifier[t]
	if !ok {
		return "", fmt.Errorf("unknown transition %q", t)
	}
	return id, nil
}

// ValidateTransition rejects unknown transitions and sub-frame
// durations at parameter-parse time.
func ValidateTransition(t Transition, durationS, fps float64) error {
	if _, ok := encoderIdentifier[t]; !ok {
		return fmt.Errorf("unknown transition %q", t)
	}
	if minFrame := 1.0 / fps; durationS < minFrame {
		return fmt.Errorf("transition duration %.4fs below one frame (%.4fs at %.1ffps)", durationS, minFrame, fps)
	}
	return nil
}

// MarkerStyle is the optional one-frame marker applied to a boundary
// that degrades from crossfade to hard cut.
type MarkerStyle string

const (
	MarkerNone       MarkerStyle = ""
	MarkerWhitepop   MarkerStyle = "whitepop"
	MarkerBlackflash MarkerStyle = "blackflash"
	MarkerPulse      MarkerStyle = "pulse"
	MarkerBloom      MarkerStyle = "bloom"
)
