// Package reporting writes the machine-readable outputs of a run: normalized JUnit XML and the quarantine summary.
package reporting

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fs"
	"github.com/rwx-research/flakeguard/internal/report"
)

// WriteJUnitReport writes a single report as normalized JUnit XML.
func WriteJUnitReport(file fs.File, r report.Report, _ Configuration) error {
	return errors.WithStack(report.Write(file, r))
}

// NormalizedReport is a report together with the file it was parsed from.
type NormalizedReport struct {
	SourcePath string
	Report     report.Report
}

// WriteNormalizedReports writes every report into its own file in `dir` and returns the paths written to. File names
// are derived from the source file, suffixed with the position of the report when a file contained more than one.
func WriteNormalizedReports(
	fileSystem fs.FileSystem,
	dir string,
	reports []NormalizedReport,
	cfg Configuration,
) ([]string, error) {
	if err := fileSystem.MkdirAll(dir); err != nil {
		return nil, errors.NewSystemError("unable to create %q: %s", dir, err)
	}

	perSource := make(map[string]int)
	for _, normalized := range reports {
		perSource[normalized.SourcePath]++
	}

	seen := make(map[string]int)
	taken := make(map[string]struct{})
	paths := make([]string, 0, len(reports))

	for _, normalized := range reports {
		base := strings.TrimSuffix(filepath.Base(normalized.SourcePath), filepath.Ext(normalized.SourcePath))
		if base == "" || base == "." {
			base = "report"
		}

		if perSource[normalized.SourcePath] > 1 {
			base = fmt.Sprintf("%s-%d", base, seen[normalized.SourcePath])
		}
		seen[normalized.SourcePath]++

		name := base
		for i := 1; ; i++ {
			if _, ok := taken[name]; !ok {
				break
			}
			name = fmt.Sprintf("%s_%d", base, i)
		}
		taken[name] = struct{}{}

		path := filepath.Join(dir, name+".xml")
		if err := writeFile(fileSystem, path, func(file fs.File) error {
			return WriteJUnitReport(file, normalized.Report, cfg)
		}); err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(fileSystem fs.FileSystem, path string, write func(fs.File) error) error {
	file, err := fileSystem.Create(path)
	if err != nil {
		return errors.NewSystemError("unable to create %q: %s", path, err)
	}
	defer file.Close()

	return write(file)
}
