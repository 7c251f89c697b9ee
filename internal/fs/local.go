// Package fs is a thin wrapper around potential file-systems. By default, it is an abstraction over the `os` package
// from the standard library.
package fs

import (
	"os"
	"sort"

	"github.com/yargevad/filepathx"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// Local is a local file-system. It wraps the default `os` package
type Local struct{}

// Create creates or truncates the named file.
func (l Local) Create(filePath string) (File, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return f, nil
}

// Open opens a file for further processing
func (l Local) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return f, nil
}

// Glob returns the names of all files matching `pattern`. In contrast to `filepath.Glob`, `**` matches any number of
// directories. Directories themselves are never returned.
func (l Local) Glob(pattern string) ([]string, error) {
	matches, err := filepathx.Glob(pattern)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		files = append(files, match)
	}

	return files, nil
}

// GlobMany expands all patterns and returns the unique matches in lexical order.
func (l Local) GlobMany(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	paths := make([]string, 0)

	for _, pattern := range patterns {
		matches, err := l.Glob(pattern)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}

			seen[match] = struct{}{}
			paths = append(paths, match)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// MkdirAll creates a directory and all missing parents.
func (l Local) MkdirAll(path string) error {
	return errors.WithStack(os.MkdirAll(path, 0o755))
}

// Stat returns file information about the named file.
func (l Local) Stat(name string) (os.FileInfo, error) {
	info, err := os.Stat(name)
	return info, errors.WithStack(err)
}
