package cli

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/rwx-research/flakeguard/internal/codeowners"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/extraction"
	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/parsing"
	"github.com/rwx-research/flakeguard/internal/reconcile"
	"github.com/rwx-research/flakeguard/internal/report"
	"github.com/rwx-research/flakeguard/internal/testing"
	"github.com/rwx-research/flakeguard/internal/validation"
)

// fileResult is everything the pipeline learned from a single file.
type fileResult struct {
	FileSet     int
	File        fileset.File
	Reports     []report.Report
	ParseIssues []parsing.ParseIssue
	Validations []validation.ReportValidation
	Runs        []testing.TestCaseRun
	// Failed is set when the file could not be read or parsed. The file contributes nothing else.
	Failed bool
	Err    error
}

// pipelineResult is the outcome of processing all file sets.
type pipelineResult struct {
	FileSets *fileset.Result
	// Files is ordered like the files in FileSets.
	Files []fileResult
	// Errors collects the per-file failures. They never abort the other files.
	Errors *multierror.Error
}

// NoFilesFound reports whether there was nothing to process.
func (r pipelineResult) NoFilesFound() bool {
	return r.FileSets == nil || r.FileSets.NoFilesFound()
}

// ReconcileInputs groups the extracted runs by file set.
func (r pipelineResult) ReconcileInputs() []reconcile.Input {
	if r.FileSets == nil {
		return nil
	}

	inputs := make([]reconcile.Input, len(r.FileSets.FileSets))
	for i, set := range r.FileSets.FileSets {
		inputs[i].TestRunnerReport = set.TestRunnerReport
	}

	for _, file := range r.Files {
		inputs[file.FileSet].Runs = append(inputs[file.FileSet].Runs, file.Runs...)
	}

	return inputs
}

// Reports returns every parsed report, in file order.
func (r pipelineResult) Reports() []report.Report {
	reports := make([]report.Report, 0, len(r.Files))
	for _, file := range r.Files {
		reports = append(reports, file.Reports...)
	}

	return reports
}

func (s Service) codeowners(cfg ReportsConfig) codeowners.Lookup {
	file, err := codeowners.Find(s.FileSystem, cfg.RepoRoot, cfg.CodeownersPath)
	if err != nil {
		s.Log.Warnf("Unable to read CODEOWNERS, test owners will not be reported: %s", err)
		return nil
	}

	if file == nil {
		s.Log.Debug("No CODEOWNERS file found")
		return nil
	}

	s.Log.Debugf("Using CODEOWNERS from %q", file.Path)
	return file
}

// process builds the file sets and parses, validates and extracts every file concurrently. A file that cannot be
// processed is logged and skipped.
func (s Service) process(ctx context.Context, cfg ReportsConfig, identity IdentityConfig) (pipelineResult, error) {
	lookup := s.codeowners(cfg)

	builder := fileset.Builder{
		FileSystem: s.FileSystem,
		RepoRoot:   cfg.RepoRoot,
		Codeowners: lookup,
		ExecStart:  cfg.ExecStart,
		Log:        s.Log,
	}

	sets, err := builder.Build(cfg.inputs())
	if err != nil {
		return pipelineResult{}, errors.WithStack(err)
	}

	result := pipelineResult{FileSets: sets, Files: make([]fileResult, 0, sets.Count)}
	for i, set := range sets.FileSets {
		for _, file := range set.Files {
			result.Files = append(result.Files, fileResult{FileSet: i, File: file})
		}
	}

	extractionOptions := extraction.Options{
		Codeowners: lookup,
		OrgSlug:    identity.OrgSlug,
		Repo:       identity.Repo,
		Variant:    identity.Variant,
	}
	validationOptions := validation.Options{Now: s.Now}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		eg.SetLimit(s.Concurrency)
	}

	for i := range result.Files {
		file := &result.Files[i]
		set := sets.FileSets[file.FileSet]

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return errors.WithStack(err)
			}

			if err := s.processFile(file, set, extractionOptions, validationOptions); err != nil {
				file.Failed = true
				file.Err = err

				mu.Lock()
				result.Errors = multierror.Append(result.Errors, err)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return result, errors.WithStack(err)
	}

	if err := result.Errors.ErrorOrNil(); err != nil {
		s.Log.Warnf("Some test reports could not be processed and were skipped: %s", err)
	}

	return result, nil
}

func (s Service) processFile(
	file *fileResult,
	set fileset.FileSet,
	extractionOptions extraction.Options,
	validationOptions validation.Options,
) error {
	path := file.File.DisplayPath()
	s.Log.Debugf("Attempting to process %q", path)

	fd, err := s.FileSystem.Open(file.File.OriginalPath)
	if err != nil {
		return errors.NewSystemError("unable to open %q: %s", path, err)
	}
	defer fd.Close()

	switch file.File.Type() {
	case fileset.TypeInternal:
		runs, err := testing.ReadRuns(fd)
		if err != nil {
			return errors.Wrapf(err, "unable to read %q", path)
		}

		file.Runs = runs
		file.Reports = []report.Report{extraction.ToReport(path, runs)}
	default:
		parsed, err := parsing.Parse(parsing.Config{Logger: s.Log}, fd)
		if err != nil {
			return errors.Wrapf(err, "unable to parse %q", path)
		}

		file.Reports = parsed.Reports
		file.ParseIssues = parsed.Issues

		for _, r := range parsed.Reports {
			file.Runs = append(file.Runs, extraction.Extract(r, extractionOptions)...)
		}
	}

	for _, r := range file.Reports {
		file.Validations = append(file.Validations, validation.Validate(r, set.TestRunnerReport, validationOptions))
	}

	return nil
}
