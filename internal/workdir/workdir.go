// Package workdir manages the scratch directory for a single render:
// beats.txt, plan.json/plan.yaml, graph.txt, and per-image intermediates
// under clips/NNNN.*. A workdir's entries are scoped to one render and
// content-addressed by a render nonce so concurrent renders never
// collide; on success it is removed unless the caller asked to keep
// it, and on failure it is always preserved for inspection.
package workdir

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a single render's scoped scratch directory.
type Dir struct {
	Root   string
	logger *slog.Logger
	keep   bool
	failed bool
}

// New creates a fresh, uniquely-named workdir under base, keyed by a
// render nonce (github.com/google/uuid) so two renders against the
// same base directory never share intermediates. keep controls whether
// Close removes the directory on a successful render.
func New(base string, keep bool, logger *slog.Logger) (*Dir, error) {
	nonce := uuid.NewString()
	root := filepath.Join(base, "render-"+nonce)

	if err := os.MkdirAll(filepath.Join(root, "clips"), 0755); err != nil {
		return nil, fmt.Errorf("workdir: create %s: %w", root, err)
	}
	if logger != nil {
		logger.Info("workdir created", "path", root)
	}
	return &Dir{Root: root, logger: logger, keep: keep}, nil
}

// BeatsPath is where the post-phase beat times are written, one per
// line.
func (d *Dir) BeatsPath() string { return filepath.Join(d.Root, "beats.txt") }

// PlanPath is where the round-trippable plan document is written.
// ext should be "json" or "yaml".
func (d *Dir) PlanPath(ext string) string { return filepath.Join(d.Root, "plan."+ext) }

// GraphPath is where the emitted filter-graph text is written.
func (d *Dir) GraphPath() string { return filepath.Join(d.Root, "graph.txt") }

// ClipPath is the per-image preprocessed intermediate path for segment
// index i, content-addressed by index and extension.
func (d *Dir) ClipPath(index int, ext string) string {
	return filepath.Join(d.Root, "clips", fmt.Sprintf("%04d%s", index, ext))
}

// WriteBeats writes the prepared beat times, one per line.
func (d *Dir) WriteBeats(times []float64) error {
	f, err := os.Create(d.BeatsPath())
	if err != nil {
		return fmt.Errorf("workdir: create beats.txt: %w", err)
	}
	defer f.Close()

	for _, t := range times {
		if _, err := fmt.Fprintf(f, "%g\n", t); err != nil {
			return fmt.Errorf("workdir: write beats.txt: %w", err)
		}
	}
	return nil
}

// WriteGraph writes the emitted filter-graph text verbatim.
func (d *Dir) WriteGraph(text string) error {
	if err := os.WriteFile(d.GraphPath(), []byte(text), 0644); err != nil {
		return fmt.Errorf("workdir: write graph.txt: %w", err)
	}
	return nil
}

// MarkFailed records that the render did not complete, so Close
// preserves the workdir regardless of the keep flag.
func (d *Dir) MarkFailed() { d.failed = true }

// Close applies the retention policy: remove the workdir on success
// unless keep was requested at construction, otherwise (or on failure)
// leave it on disk for inspection.
func (d *Dir) Close() error {
	if d.keep || d.failed {
		if d.logger != nil {
			d.logger.Info("workdir preserved", "path", d.Root, "keep", d.keep, "failed", d.failed)
		}
		return nil
	}
	if err := os.RemoveAll(d.Root); err != nil {
		return fmt.Errorf("workdir: remove %s: %w", d.Root, err)
	}
	if d.logger != nil {
		d.logger.Info("workdir removed", "path", d.Root)
	}
	return nil
}
