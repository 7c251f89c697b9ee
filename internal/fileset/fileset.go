// Package fileset turns the report globs given on the command line into the groups of files the pipeline processes.
package fileset

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/codeowners"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fs"
)

// Type is the format of the files in a FileSet.
type Type int

const (
	TypeJunit Type = iota
	TypeInternal
)

func (t Type) String() string {
	switch t {
	case TypeJunit:
		return "junit"
	case TypeInternal:
		return "internal"
	default:
		return fmt.Sprintf("unknown (%d)", int(t))
	}
}

const (
	junitExtension    = ".xml"
	internalExtension = ".bin"
)

// RunnerStatus is the outcome a test runner reported for a whole file set.
type RunnerStatus int

const (
	RunnerStatusPassed RunnerStatus = iota + 1
	RunnerStatusFailed
	RunnerStatusFlaky
)

func (s RunnerStatus) String() string {
	switch s {
	case RunnerStatusPassed:
		return "passed"
	case RunnerStatusFailed:
		return "failed"
	case RunnerStatusFlaky:
		return "flaky"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

// ParseRunnerStatus is the inverse of RunnerStatus.String.
func ParseRunnerStatus(value string) (RunnerStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "passed":
		return RunnerStatusPassed, nil
	case "failed":
		return RunnerStatusFailed, nil
	case "flaky":
		return RunnerStatusFlaky, nil
	default:
		return 0, errors.NewInputError("unknown test runner status %q", value)
	}
}

// TestRunnerReport is what the test runner itself reported about a run, independent of the report files it wrote.
type TestRunnerReport struct {
	ResolvedStatus RunnerStatus
	StartTime      time.Time
	EndTime        time.Time
}

// ParseTestRunnerReport builds a TestRunnerReport from its textual form. Times are RFC 3339. It returns nil when all
// values are empty.
func ParseTestRunnerReport(status, startTime, endTime string) (*TestRunnerReport, error) {
	if status == "" && startTime == "" && endTime == "" {
		return nil, nil
	}

	runnerReport := &TestRunnerReport{}

	if status != "" {
		resolved, err := ParseRunnerStatus(status)
		if err != nil {
			return nil, err
		}
		runnerReport.ResolvedStatus = resolved
	}

	for _, value := range []struct {
		raw    string
		target *time.Time
	}{
		{startTime, &runnerReport.StartTime},
		{endTime, &runnerReport.EndTime},
	} {
		if value.raw == "" {
			continue
		}

		parsed, err := time.Parse(time.RFC3339Nano, value.raw)
		if err != nil {
			return nil, errors.NewInputError("unable to parse test runner time %q, expected RFC 3339", value.raw)
		}
		*value.target = parsed
	}

	return runnerReport, nil
}

// File is a single report file.
type File struct {
	// OriginalPath is the path the file was found at.
	OriginalPath string
	// RelativePath is OriginalPath relative to the repository root, if it is inside of it.
	RelativePath string
	// Path is a collision-free name for the file, `junit/<n>` or `internal/<n>`.
	Path         string
	LastModified time.Time
	Owners       []string
}

// Type is derived from the file extension. A file set may mix both types.
func (f File) Type() Type {
	if strings.HasSuffix(f.OriginalPath, internalExtension) {
		return TypeInternal
	}

	return TypeJunit
}

// DisplayPath is the path to show to users.
func (f File) DisplayPath() string {
	if f.RelativePath != "" {
		return f.RelativePath
	}

	return f.OriginalPath
}

// FileSet is the group of files matched by one glob.
type FileSet struct {
	Type             Type
	Files            []File
	Glob             string
	TestRunnerReport *TestRunnerReport
}

// Input is one glob and, optionally, the runner report that applies to all files it matches.
type Input struct {
	Glob             string
	TestRunnerReport *TestRunnerReport
}

// Result is the output of Builder.Build.
type Result struct {
	FileSets []FileSet
	Count    int
}

// NoFilesFound reports whether no glob matched a usable file.
func (r Result) NoFilesFound() bool {
	return r.Count == 0 || len(r.FileSets) == 0
}

// Builder assembles file sets from globs.
type Builder struct {
	FileSystem fs.FileSystem
	RepoRoot   string
	// Codeowners is used to attribute owners to every file. Optional.
	Codeowners codeowners.Lookup
	// ExecStart, when set, excludes files that were last modified before it.
	ExecStart time.Time
	Log       *zap.SugaredLogger
}

func (b Builder) Validate() error {
	if b.FileSystem == nil {
		return errors.NewInternalError("Missing file system")
	}

	if b.Log == nil {
		return errors.NewInternalError("Missing logger")
	}

	return nil
}

// Build expands every input into a file set. When no input matches any file, each glob is retried as a directory,
// i.e. as `<glob>/**/*.xml` and `<glob>/**/*.bin`.
func (b Builder) Build(inputs []Input) (*Result, error) {
	if err := b.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	result, err := b.fromGlobs(inputs)
	if err != nil {
		return nil, err
	}

	if result.Count > 0 {
		return result, nil
	}

	directories := make([]Input, 0, 2*len(inputs))
	for _, input := range inputs {
		for _, extension := range []string{junitExtension, internalExtension} {
			directory := input
			directory.Glob = filepath.Join(input.Glob, "**", "*"+extension)
			directories = append(directories, directory)
		}
	}

	return b.fromGlobs(directories)
}

func (b Builder) fromGlobs(inputs []Input) (*Result, error) {
	result := &Result{FileSets: make([]FileSet, 0, len(inputs))}

	for _, input := range inputs {
		pattern := input.Glob
		if !filepath.IsAbs(pattern) && b.RepoRoot != "" {
			pattern = filepath.Join(b.RepoRoot, pattern)
		}

		paths, err := b.FileSystem.Glob(pattern)
		if err != nil {
			return nil, errors.NewInputError("Unable to expand %q: %s", input.Glob, err)
		}

		fileSet := FileSet{Type: TypeJunit, Glob: input.Glob, TestRunnerReport: input.TestRunnerReport}
		for _, path := range paths {
			file, ok, err := b.file(path, input.Glob, result.Count)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			if strings.HasSuffix(file.OriginalPath, internalExtension) {
				fileSet.Type = TypeInternal
			}

			fileSet.Files = append(fileSet.Files, file)
			result.Count++
		}

		result.FileSets = append(result.FileSets, fileSet)
	}

	return result, nil
}

func (b Builder) file(path, glob string, index int) (File, bool, error) {
	file := File{OriginalPath: path}

	switch filepath.Ext(path) {
	case junitExtension:
		file.Path = fmt.Sprintf("junit/%d", index)
	case internalExtension:
		file.Path = fmt.Sprintf("internal/%d", index)
	default:
		b.Log.Debugf("Ignoring %q from %q, it is neither a JUnit XML nor a run record file", path, glob)
		return file, false, nil
	}

	info, err := b.FileSystem.Stat(path)
	if err != nil {
		return file, false, errors.NewSystemError("Unable to stat %q: %s", path, err)
	}
	file.LastModified = info.ModTime()

	if !b.ExecStart.IsZero() && file.LastModified.Before(b.ExecStart) {
		b.Log.Warnf("Ignoring %q from %q, it was not modified since the test command started", path, glob)
		return file, false, nil
	}

	if b.RepoRoot != "" {
		if rel, err := filepath.Rel(b.RepoRoot, path); err == nil && fs.IsLocal(rel) {
			file.RelativePath = filepath.ToSlash(rel)
		}
	}

	if b.Codeowners != nil {
		lookupPath := file.RelativePath
		if lookupPath == "" {
			lookupPath = filepath.ToSlash(path)
		}

		if owners, ok := b.Codeowners.Owners(lookupPath); ok {
			file.Owners = owners
		}
	}

	return file, true, nil
}
