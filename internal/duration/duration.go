// Package duration converts an ordered sequence of cut times into
// per-segment durations, then quantizes those durations to whole
// output frames with a drift-correction pass so the segments still
// sum to the audio's end time.
package duration

import "math"

// QuantMode selects how a nominal duration rounds to the frame grid.
type QuantMode string

const (
	Nearest QuantMode = "nearest"
	Floor   QuantMode = "floor"
	Ceil    QuantMode = "ceil"
)

// Warning records a segment merge forced by the minimum-duration
// floor: a segment below one frame is merged into its shorter
// neighbour.
type Warning struct {
	Index int
	Msg   string
}

// Nominal computes per-segment durations from cut times and the
// audio's end time: di = cuts[i+1]-cuts[i] for every segment but the
// last, whose duration trims to audioEndS.
func Nominal(cutTimes []float64, audioEndS float64) []float64 {
	n := len(cutTimes)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := 0; i < n-1; i++ {
		out[i] = cutTimes[i+1] - cutTimes[i]
	}
	out[n-1] = audioEndS - cutTimes[n-1]
	return out
}

// Quantize rounds every nominal duration to the frame grid implied by
// fps, then redistributes the residual rounding error onto the last
// segment so the quantized durations still sum to the pre-quantization
// total to within one frame. Any segment that ends up below one frame
// is merged into its shorter neighbour; each merge emits a Warning and
// shrinks the returned slice by one entry.
func Quantize(nominal []float64, fps float64, mode QuantMode) ([]float64, []Warning) {
	if len(nominal) == 0 {
		return nil, nil
	}
	frame := 1.0 / fps

	target := 0.0
	for _, d := range nominal {
		target += d
	}

	out := make([]float64, len(nominal))
	for i, d := range nominal {
		out[i] = roundToFrame(d, fps, mode)
	}

	actual := 0.0
	for _, d := range out {
		actual += d
	}
	out[len(out)-1] += target - actual

	return mergeShortSegments(out, frame)
}

func roundToFrame(d, fps float64, mode QuantMode) float64 {
	frames := d * fps
	switch mode {
	case Floor:
		frames = math.Floor(frames)
	case Ceil:
		frames = math.Ceil(frames)
	default:
		frames = math.Round(frames)
	}
	return frames / fps
}

// mergeShortSegments repeatedly folds any segment below one frame into
// its shorter neighbour, preferring to shrink the index set rather
// than leave a sub-frame segment the encoder can't represent.
func mergeShortSegments(durations []float64, frame float64) ([]float64, []Warning) {
	var warnings []Warning
	const eps = 1e-9

	for {
		short := -1
		for i, d := range durations {
			if d < frame-eps {
				short = i
				break
			}
		}
		if short == -1 {
			return durations, warnings
		}

		left, hasLeft := short-1, short > 0
		right, hasRight := short+1, short < len(durations)-1

		var mergeInto int
		switch {
		case hasLeft && hasRight:
			if durations[left] <= durations[right] {
				mergeInto = left
			} else {
				mergeInto = right
			}
		case hasLeft:
			mergeInto = left
		case hasRight:
			mergeInto = right
		default:
			// Only one segment total and it's still short; nothing to
			// merge into. Leave it as-is; the caller decides whether a
			// single too-short segment is fatal.
			warnings = append(warnings, Warning{Index: short, Msg: "segment below one frame with no neighbour to merge into"})
			return durations, warnings
		}

		warnings = append(warnings, Warning{
			Index: short,
			Msg:   "segment below one frame; merged with shorter neighbour",
		})
		durations[mergeInto] += durations[short]
		durations = append(durations[:short], durations[short+1:]...)
	}
}
