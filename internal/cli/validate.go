package cli

import (
	"context"
	"fmt"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/parsing"
	"github.com/rwx-research/flakeguard/internal/validation"
)

// ValidateReports parses and validates every file and logs what is wrong with them. It fails with exit code 1 if any
// file is invalid. A file is invalid when it cannot be parsed, has an invalid structure, does not hold exactly one
// report or its report does not validate.
func (s Service) ValidateReports(ctx context.Context, cfg ValidateConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithStack(err)
	}

	result, err := s.process(ctx, cfg.Reports, IdentityConfig{})
	if err != nil {
		return s.logError(errors.WithStack(err))
	}

	if result.NoFilesFound() {
		return s.logError(errors.NewInputError("No JUnit files found to validate."))
	}

	s.Log.Infof("Validating the following %d files:", result.FileSets.Count)
	for _, set := range result.FileSets.FileSets {
		s.Log.Infof("  File set matching %s:", set.Glob)
		for _, file := range set.Files {
			s.Log.Infof("\t%s", file.DisplayPath())
		}
	}

	if cfg.ShowWarnings {
		s.logParseIssues(result)
	}

	numFiles, numInvalid, numSubOptimal := len(result.Files), 0, 0

	for _, file := range result.Files {
		fileIssues := fileLevelIssues(file)
		numSuites, numCases, invalidIssues, subOptimalIssues := 0, 0, 0, 0

		for _, v := range file.Validations {
			numSuites += len(v.TestSuites)
			numCases += len(v.TestCases())
			invalidIssues += v.NumInvalidIssues()
			subOptimalIssues += v.NumSubOptimalIssues()
		}

		warnings := ""
		if subOptimalIssues > 0 {
			warnings = fmt.Sprintf(", %d validation warnings", subOptimalIssues)
		}

		s.Log.Infof(
			"%s - %d test suites, %d test cases, %d validation errors%s",
			file.File.DisplayPath(),
			numSuites,
			numCases,
			invalidIssues,
			warnings,
		)

		for _, issue := range fileIssues {
			s.Log.Infof("  %s - %s", levelLabel(validation.LevelInvalid), issue)
		}

		for _, v := range file.Validations {
			for _, issue := range v.AllIssues() {
				s.Log.Infof("  %s - %s", levelLabel(issue.Level), issue)
			}
		}

		if invalidIssues > 0 || len(fileIssues) > 0 {
			numInvalid++
		}

		if subOptimalIssues > 0 {
			numSubOptimal++
		}
	}

	if numInvalid > 0 {
		warnings := ""
		if numSubOptimal > 0 {
			warnings = fmt.Sprintf(", %d files have validation warnings", numSubOptimal)
		}

		s.Log.Errorf("%d files are valid, %d files are not valid%s", numFiles-numInvalid, numInvalid, warnings)
		return errors.NewExecutionError(1, "%d of %d test reports are not valid", numInvalid, numFiles)
	}

	warnings := ""
	if numSubOptimal > 0 {
		warnings = fmt.Sprintf(" (%d files with validation warnings)", numSubOptimal)
	}

	s.Log.Infof("All %d files are valid!%s", numFiles, warnings)

	return nil
}

// fileLevelIssues returns what makes a file invalid before any of its reports are looked at: it could not be read, the
// parser found an invalid structure, or it does not hold exactly one report.
func fileLevelIssues(file fileResult) []string {
	if file.Failed {
		return []string{fmt.Sprintf("unable to parse file: %s", file.Err)}
	}

	issues := make([]string, 0)
	reportCountReported := false
	for _, issue := range file.ParseIssues {
		if issue.Level == parsing.IssueInvalid {
			issues = append(issues, issue.Kind.String())
			reportCountReported = reportCountReported || issue.Kind == parsing.ReportMultipleFound
		}
	}

	switch {
	case len(file.Reports) == 0:
		issues = append(issues, parsing.ReportNotFound.String())
	case len(file.Reports) > 1 && !reportCountReported:
		issues = append(issues, fmt.Sprintf("expected exactly 1 report, found %d", len(file.Reports)))
	}

	return issues
}

func (s Service) logParseIssues(result pipelineResult) {
	total := 0
	for _, file := range result.Files {
		total += len(file.ParseIssues)
	}

	if total == 0 {
		return
	}

	s.Log.Warnf("Encountered the following %d non-fatal errors while parsing files:", total)

	for _, file := range result.Files {
		if len(file.ParseIssues) == 0 {
			continue
		}

		s.Log.Warnf("  File: %s", file.File.DisplayPath())
		for _, issue := range file.ParseIssues {
			s.Log.Warnf("\t%s", issue)
		}
	}
}

func levelLabel(level validation.Level) string {
	switch level {
	case validation.LevelInvalid:
		return "INVALID"
	case validation.LevelSubOptimal:
		return "OPTIONAL"
	default:
		return "VALID"
	}
}
