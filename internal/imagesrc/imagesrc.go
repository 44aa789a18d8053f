// Package imagesrc is a thin, interface-only image enumerator: it only
// walks a directory and returns a sorted, filtered path list. The
// actual binding behaviour (shuffle, loop, truncate) lives in
// internal/imagebind.
package imagesrc

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions lists the still-image formats framebeat accepts.
var SupportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// List returns every supported image directly inside dir (no
// recursion; image decks are expected flat), sorted lexically so the
// declared order is reproducible across platforms.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !SupportedExtensions[ext] {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
