// Package planio serialises and deserialises a plan.Plan to a stable,
// human-readable document: reading a plan and re-rendering it must
// produce byte-identical encoder instructions for the same image set,
// seed, and render parameters. The document is YAML: friendlier to
// hand-edit than JSON for a file a user might tweak before a
// re-render.
package planio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/framebeat/framebeat/internal/plan"
)

// SchemaVersion is the current plan document schema version. Reading a
// document written by an older or newer version produces a clear
// version-mismatch error rather than silently misinterpreting fields.
const SchemaVersion = 1

// Document is the on-disk shape of a Plan: schema version, parameter
// snapshot, prepared beats, cuts, durations, images, frame rate and
// dimensions.
type Document struct {
	SchemaVersion int            `yaml:"schema_version"`
	Params        map[string]any `yaml:"params"`
	PreparedBeats []float64      `yaml:"prepared_beats"`
	Cuts          []CutDocument  `yaml:"cuts"`
	DurationsS    []float64      `yaml:"durations_s"`
	Images        []string       `yaml:"images"`
	AudioEndS     float64        `yaml:"audio_end_s"`
	Width         int            `yaml:"width,omitempty"`
	Height        int            `yaml:"height,omitempty"`
	FPS           float64        `yaml:"fps,omitempty"`
}

// CutDocument is the on-disk shape of a plan.Cut.
type CutDocument struct {
	TimeS      float64 `yaml:"time_s"`
	BeatIndex  int     `yaml:"beat_index"`
	WindowUsed string  `yaml:"window_used"`
	Strategy   string  `yaml:"strategy_used"`
}

// SchemaMismatchError reports a plan document whose schema_version
// this reader does not understand, or one at a supported version that
// is missing required fields.
type SchemaMismatchError struct {
	Found, Want int
	Missing     []string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("planio: plan document missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("planio: plan document schema version %d is not supported (expected %d)", e.Found, e.Want)
}

// ToDocument flattens a plan.Plan into its serialisable Document form.
func ToDocument(p *plan.Plan, width, height int, fps float64) Document {
	doc := Document{
		SchemaVersion: SchemaVersion,
		Params:        p.Params,
		PreparedBeats: p.PreparedBeats,
		DurationsS:    p.DurationsS,
		Images:        p.Images,
		AudioEndS:     p.AudioEndS,
		Width:         width,
		Height:        height,
		FPS:           fps,
	}
	doc.Cuts = make([]CutDocument, len(p.Cuts))
	for i, c := range p.Cuts {
		doc.Cuts[i] = CutDocument{
			TimeS:      c.TimeS,
			BeatIndex:  c.BeatIndex,
			WindowUsed: string(c.WindowUsed),
			Strategy:   c.Strategy,
		}
	}
	return doc
}

// FromDocument reconstructs a plan.Plan from a Document.
func FromDocument(doc Document) *plan.Plan {
	p := &plan.Plan{
		Params:        doc.Params,
		PreparedBeats: doc.PreparedBeats,
		DurationsS:    doc.DurationsS,
		Images:        doc.Images,
		AudioEndS:     doc.AudioEndS,
	}
	p.Cuts = make([]plan.Cut, len(doc.Cuts))
	for i, c := range doc.Cuts {
		p.Cuts[i] = plan.Cut{
			TimeS:      c.TimeS,
			BeatIndex:  c.BeatIndex,
			WindowUsed: plan.WindowUsed(c.WindowUsed),
			Strategy:   c.Strategy,
		}
	}
	return p
}

// Write encodes a Document to path as YAML.
func Write(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("planio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("planio: encode %s: %w", path, err)
	}
	return nil
}

// Read decodes a plan document from path. It rejects a schema version
// this reader does not understand, and a document at a supported
// version that is missing any required field (prepared beats, cuts,
// durations, images). Unknown extra fields are ignored.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("planio: read %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("planio: parse %s: %w", path, err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return Document{}, &SchemaMismatchError{Found: doc.SchemaVersion, Want: SchemaVersion}
	}

	var missing []string
	if len(doc.PreparedBeats) == 0 {
		missing = append(missing, "prepared_beats")
	}
	if len(doc.Cuts) == 0 {
		missing = append(missing, "cuts")
	}
	if len(doc.DurationsS) == 0 {
		missing = append(missing, "durations_s")
	}
	if len(doc.Images) == 0 {
		missing = append(missing, "images")
	}
	if len(missing) > 0 {
		return Document{}, &SchemaMismatchError{Found: doc.SchemaVersion, Want: SchemaVersion, Missing: missing}
	}
	return doc, nil
}

// RebindMissingImages re-binds a plan's image list when any referenced
// path is missing on disk; if none is missing the list is returned
// unchanged. Otherwise the whole list is replaced from the current
// image directory: its supported images in name order, wrapped modulo
// their count so the original count is preserved. Images are not
// matched by name and the plan's original order is not kept, since
// the plan's durations and cuts are aligned to image count, not
// identity.
func RebindMissingImages(images []string, imageDir string) ([]string, error) {
	missing := false
	for _, img := range images {
		if _, err := os.Stat(img); err != nil {
			missing = true
			break
		}
	}
	if !missing {
		return images, nil
	}

	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, fmt.Errorf("planio: rebind from %s: %w", imageDir, err)
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff":
			candidates = append(candidates, filepath.Join(imageDir, e.Name()))
		}
	}

	rebound := make([]string, len(images))
	for i := range images {
		if len(candidates) == 0 {
			return nil, fmt.Errorf("planio: rebind from %s: no images available to preserve count %d", imageDir, len(images))
		}
		rebound[i] = candidates[i%len(candidates)]
	}
	return rebound, nil
}
