// Command fixturegen writes deterministic WAV click tracks for manual
// smoke-testing framebeat against a real external beat-detector
// process (FRAMEBEAT_BEAT_DETECTOR).
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/framebeat/framebeat/internal/fixtures"
)

func main() {
	outDir := flag.String("out", "./testdata/audio", "output directory for generated audio")
	bpmLadderStr := flag.String("bpm-ladder", "80,100,120,128,140,160", "comma-separated BPM ladder")
	beats := flag.Int("beats", 32, "beats per click track")
	flag.Parse()

	var ladder []float64
	for _, s := range strings.Split(*bpmLadderStr, ",") {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &v); err == nil {
			ladder = append(ladder, v)
		}
	}
	if len(ladder) == 0 {
		ladder = []float64{120}
	}

	manifest, err := fixtures.Generate(fixtures.Config{
		OutputDir:  *outDir,
		SampleRate: 48000,
		BPMLadder:  ladder,
		Beats:      *beats,
	})
	if err != nil {
		log.Fatalf("generate fixtures: %v", err)
	}

	log.Printf("fixturegen wrote %d fixtures to %s (sample_rate=%d)", len(manifest.Fixtures), *outDir, manifest.SampleRate)
}
