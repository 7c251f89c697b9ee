package cli

import (
	"context"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/reporting"
	"github.com/rwx-research/flakeguard/internal/testing"
)

// Extract writes every test run found in the reports to cfg.Output as binary run records.
func (s Service) Extract(ctx context.Context, cfg ExtractConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithStack(err)
	}

	result, err := s.process(ctx, cfg.Reports, cfg.Identity)
	if err != nil {
		return s.logError(errors.WithStack(err))
	}

	if result.NoFilesFound() {
		return s.logError(errors.NewInputError("No JUnit files found to extract test runs from."))
	}

	runs := make([]testing.TestCaseRun, 0)
	for _, file := range result.Files {
		runs = append(runs, file.Runs...)
	}

	file, err := s.FileSystem.Create(cfg.Output)
	if err != nil {
		return s.logError(errors.NewSystemError("unable to create %q: %s", cfg.Output, err))
	}
	defer file.Close()

	if err := testing.WriteRuns(file, runs); err != nil {
		return s.logError(errors.Wrapf(err, "unable to write test runs to %q", cfg.Output))
	}

	s.Log.Infof("Wrote %d test runs to %s", len(runs), cfg.Output)

	return nil
}

// Normalize re-serializes every parsed report as JUnit XML into cfg.OutputDir.
func (s Service) Normalize(ctx context.Context, cfg NormalizeConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithStack(err)
	}

	result, err := s.process(ctx, cfg.Reports, IdentityConfig{})
	if err != nil {
		return s.logError(errors.WithStack(err))
	}

	if result.NoFilesFound() {
		return s.logError(errors.NewInputError("No JUnit files found to normalize."))
	}

	reports := make([]reporting.NormalizedReport, 0, len(result.Files))
	for _, file := range result.Files {
		for _, r := range file.Reports {
			reports = append(reports, reporting.NormalizedReport{SourcePath: file.File.DisplayPath(), Report: r})
		}
	}

	paths, err := reporting.WriteNormalizedReports(s.FileSystem, cfg.OutputDir, reports, reporting.Configuration{})
	if err != nil {
		return s.logError(errors.WithStack(err))
	}

	for _, path := range paths {
		s.Log.Debugf("Wrote %s", path)
	}
	s.Log.Infof("Wrote %d normalized test reports to %s", len(paths), cfg.OutputDir)

	return nil
}
