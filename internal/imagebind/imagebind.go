// Package imagebind maps an ordered image list onto N planned
// segments, with an optional seeded deterministic shuffle and a
// loop-or-truncate policy when the image count doesn't match the
// segment count.
package imagebind

import "math/rand"

// LoopPolicy controls what happens when there are fewer images than
// segments.
type LoopPolicy string

const (
	// Loop wraps the image list modulo its length to fill every segment.
	Loop LoopPolicy = "loop"
	// Truncate drops the tail segments instead of repeating images.
	Truncate LoopPolicy = "truncate"
)

// Result is the outcome of a bind: the per-segment image paths, and
// the segment count actually honoured (<= the requested count when
// Truncate drops tail segments for want of images).
type Result struct {
	Images       []string
	SegmentCount int
}

// Bind maps images onto segmentCount segments. When shuffle is true, a
// seeded permutation of images is taken before binding; the same
// (seed, images) always yields the same permutation, so two runs with
// identical inputs produce an identical Result.
func Bind(images []string, segmentCount int, shuffle bool, seed int64, loop LoopPolicy) Result {
	pool := images
	if shuffle {
		pool = shuffled(images, seed)
	}

	if len(pool) == 0 || segmentCount == 0 {
		return Result{}
	}

	if len(pool) >= segmentCount {
		return Result{Images: append([]string(nil), pool[:segmentCount]...), SegmentCount: segmentCount}
	}

	if loop == Truncate {
		return Result{Images: append([]string(nil), pool...), SegmentCount: len(pool)}
	}

	out := make([]string, segmentCount)
	for i := range out {
		out[i] = pool[i%len(pool)]
	}
	return Result{Images: out, SegmentCount: segmentCount}
}

// shuffled returns a seeded deterministic permutation of images,
// leaving the input slice untouched.
func shuffled(images []string, seed int64) []string {
	out := append([]string(nil), images...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
