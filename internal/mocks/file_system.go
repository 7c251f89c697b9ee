package mocks

import (
	"os"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fs"
)

// FileSystem is a mocked implementation of 'fs.FileSystem'.
type FileSystem struct {
	MockCreate   func(filePath string) (fs.File, error)
	MockOpen     func(name string) (fs.File, error)
	MockGlob     func(pattern string) ([]string, error)
	MockGlobMany func(patterns []string) ([]string, error)
	MockMkdirAll func(path string) error
	MockStat     func(name string) (os.FileInfo, error)
}

// Create either calls the configured mock of itself or returns an error if that doesn't exist.
func (f *FileSystem) Create(filePath string) (fs.File, error) {
	if f.MockCreate != nil {
		return f.MockCreate(filePath)
	}

	return nil, errors.NewInternalError("MockCreate was not configured")
}

func (f *FileSystem) Open(name string) (fs.File, error) {
	if f.MockOpen != nil {
		return f.MockOpen(name)
	}

	return nil, errors.NewInternalError("MockOpen was not configured")
}

func (f *FileSystem) Glob(pattern string) ([]string, error) {
	if f.MockGlob != nil {
		return f.MockGlob(pattern)
	}

	return nil, errors.NewInternalError("MockGlob was not configured")
}

// GlobMany falls back to calling MockGlob for every pattern.
func (f *FileSystem) GlobMany(patterns []string) ([]string, error) {
	if f.MockGlobMany != nil {
		return f.MockGlobMany(patterns)
	}

	if f.MockGlob == nil {
		return nil, errors.NewInternalError("MockGlobMany was not configured")
	}

	paths := make([]string, 0)
	for _, pattern := range patterns {
		matches, err := f.MockGlob(pattern)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}

	return paths, nil
}

func (f *FileSystem) MkdirAll(path string) error {
	if f.MockMkdirAll != nil {
		return f.MockMkdirAll(path)
	}

	return errors.NewInternalError("MockMkdirAll was not configured")
}

func (f *FileSystem) Stat(name string) (os.FileInfo, error) {
	if f.MockStat != nil {
		return f.MockStat(name)
	}

	return nil, errors.NewInternalError("MockStat was not configured")
}
