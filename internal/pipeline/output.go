package pipeline

import (
	"path/filepath"
	"strings"
)

// OutputPath places a converted file in dir, or next to the input when dir is
// empty. A path that would overwrite the input gets a _converted suffix.
func OutputPath(input, dir, suggested string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}

	out := filepath.Join(dir, suggested)
	if filepath.Clean(out) != filepath.Clean(input) {
		return out
	}

	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "_converted" + ext
}
