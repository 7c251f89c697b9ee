package fs

import (
	"path/filepath"
	"strings"
)

// IsLocal reports whether `path` is relative and stays within the directory it is evaluated in.
// It mirrors `filepath.IsLocal` from Go 1.20 for Unix paths.
func IsLocal(path string) bool {
	if filepath.IsAbs(path) || path == "" {
		return false
	}

	hasDots := false
	for p := path; p != ""; {
		var part string
		part, p, _ = strings.Cut(p, "/")
		if part == "." || part == ".." {
			hasDots = true
			break
		}
	}

	if hasDots {
		path = filepath.Clean(path)
	}

	return path != ".." && !strings.HasPrefix(path, "../")
}
