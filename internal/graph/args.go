package graph

import "strconv"

// Invocation holds everything EncodeArgs needs to assemble the
// encoder command line.
type Invocation struct {
	AudioPath      string
	FilterScript   string // path to the side-file holding PrintFilterGraph's output
	OutputVideoTag string // the printer's root output label, e.g. "v7"
	OutputPath     string
	FPS            float64
	NoAudio        bool
	Verbose        bool
}

// EncodeArgs builds the complete ffmpeg argument slice for one render
// invocation. Every section is appended in a fixed order: never
// string-concatenate the command line, append ordered sections so each
// one is independently testable.
func EncodeArgs(inv Invocation) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, "ffmpeg", "-hide_banner", "-nostdin", "-y")

	// --- Loglevel ---
	if inv.Verbose {
		args = append(args, "-loglevel", "info", "-stats")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Audio input ---
	if !inv.NoAudio && inv.AudioPath != "" {
		args = append(args, "-i", inv.AudioPath)
	}

	// --- Filter graph, read from the side-file ---
	args = append(args, "-filter_complex_script", inv.FilterScript)
	args = append(args, "-map", "["+inv.OutputVideoTag+"]")

	if !inv.NoAudio && inv.AudioPath != "" {
		args = append(args, "-map", "0:a", "-c:a", "aac", "-shortest")
	} else {
		args = append(args, "-an")
	}

	// --- Video codec ---
	args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p", "-r", strconv.FormatFloat(inv.FPS, 'f', -1, 64))

	// --- Output ---
	args = append(args, inv.OutputPath)

	return args
}
