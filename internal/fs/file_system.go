package fs

import (
	"os"
)

// FileSystem is an abstraction over file-systems. This is implemented by the default `os` package and can also be used
// for mocking.
type FileSystem interface {
	Create(filePath string) (File, error)
	Open(name string) (File, error)
	Glob(pattern string) ([]string, error)
	GlobMany(patterns []string) ([]string, error)
	MkdirAll(path string) error
	Stat(name string) (os.FileInfo, error)
}
