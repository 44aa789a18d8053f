// Command planshow inspects a plan document written by framebeat's
// --plan-out: it reports the schema version, cut count, image count
// and total duration, and can verify a plan against an image directory
// (--plan-verify), confirming every referenced image still exists and
// reporting how many would be rebound from the current directory if
// not.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/framebeat/framebeat/internal/planio"
)

func main() {
	planPath := flag.String("plan", "", "path to a plan document written by --plan-out")
	verifyDir := flag.String("plan-verify", "", "if set, check the plan's images against this directory")
	flag.Parse()

	if *planPath == "" {
		log.Fatal("plan path required (-plan)")
	}

	doc, err := planio.Read(*planPath)
	if err != nil {
		log.Fatalf("read plan: %v", err)
	}

	fmt.Printf("schema_version: %d\n", doc.SchemaVersion)
	fmt.Printf("cuts: %d\n", len(doc.Cuts))
	fmt.Printf("images: %d\n", len(doc.Images))
	fmt.Printf("durations: %d\n", len(doc.DurationsS))
	fmt.Printf("audio_end_s: %g\n", doc.AudioEndS)
	if doc.Width > 0 || doc.Height > 0 {
		fmt.Printf("dimensions: %dx%d @ %gfps\n", doc.Width, doc.Height, doc.FPS)
	}

	var total float64
	for _, d := range doc.DurationsS {
		total += d
	}
	fmt.Printf("total_duration_s: %g\n", total)

	if *verifyDir == "" {
		return
	}

	missing := 0
	for _, img := range doc.Images {
		if _, statErr := os.Stat(img); statErr != nil {
			missing++
		}
	}
	if missing == 0 {
		fmt.Printf("plan-verify: all %d images present under current paths\n", len(doc.Images))
		return
	}

	fmt.Printf("plan-verify: %d/%d images missing, attempting rebind from %s\n", missing, len(doc.Images), *verifyDir)
	rebound, err := planio.RebindMissingImages(doc.Images, *verifyDir)
	if err != nil {
		log.Fatalf("plan-verify: rebind failed: %v", err)
	}
	fmt.Printf("plan-verify: rebind preserved count (%d images)\n", len(rebound))
}
