// Package extraction flattens parsed reports into the individual test executions they describe.
package extraction

import (
	"strconv"
	"time"

	"github.com/rwx-research/flakeguard/internal/codeowners"
	"github.com/rwx-research/flakeguard/internal/identity"
	"github.com/rwx-research/flakeguard/internal/report"
	"github.com/rwx-research/flakeguard/internal/repo"
	"github.com/rwx-research/flakeguard/internal/testing"
)

// Options hold everything besides the report that determines the extracted runs.
type Options struct {
	// Codeowners attributes owners to runs with a known file. Optional.
	Codeowners     codeowners.Lookup
	OrgSlug        string
	Repo           repo.Info
	QuarantinedIDs map[string]struct{}
	Variant        string
}

// Extract returns one run per test case in the report. Missing data results in zero values, never in a dropped run.
func Extract(r report.Report, opts Options) []testing.TestCaseRun {
	runs := make([]testing.TestCaseRun, 0, r.CountTests().Tests)
	repoName := opts.Repo.FullName()

	for _, suite := range r.TestSuites {
		suiteFile, _ := suite.Extra.FileOrFilepath()

		for _, testCase := range suite.TestCases {
			run := testing.TestCaseRun{
				Name:       testCase.Name,
				ParentName: suite.Name,
			}

			if testCase.Classname != nil {
				run.Classname = *testCase.Classname
			}

			run.File = suiteFile
			if file, ok := testCase.Extra.FileOrFilepath(); ok {
				run.File = file
			}

			if line, ok := testCase.Extra.Line(); ok {
				run.Line = line
			}

			existingID, _ := testCase.Extra.ID()
			run.ID = identity.ForTestCase(identity.Components{
				Org:        opts.OrgSlug,
				Repo:       repoName,
				File:       run.File,
				Classname:  run.Classname,
				ParentName: run.ParentName,
				Name:       run.Name,
				ExistingID: existingID,
				Variant:    opts.Variant,
			})

			resolveTimes(&run, testCase, suite)
			resolveStatus(&run, testCase.StatusOrSuccess())

			if _, ok := opts.QuarantinedIDs[run.ID]; ok {
				run.IsQuarantined = true
			}

			if run.File != "" && opts.Codeowners != nil {
				if owners, ok := opts.Codeowners.Owners(run.File); ok {
					run.Codeowners = owners
				}
			}

			runs = append(runs, run)
		}
	}

	return runs
}

func resolveTimes(run *testing.TestCaseRun, testCase report.TestCase, suite report.TestSuite) {
	startedAt := testCase.Timestamp
	if startedAt == nil {
		startedAt = suite.Timestamp
	}

	duration := testCase.Time
	if duration == nil {
		duration = suite.Time
	}

	switch {
	case startedAt != nil:
		run.StartedAt = *startedAt
		run.HasTimestamp = true

		if duration != nil {
			run.FinishedAt = startedAt.Add(*duration)
		}
	case duration != nil:
		run.StartedAt = time.Unix(0, 0).UTC()
		run.FinishedAt = run.StartedAt.Add(*duration)
	}
}

func resolveStatus(run *testing.TestCaseRun, status report.Status) {
	var message, description *string

	switch s := status.(type) {
	case report.Success:
		run.Status = testing.StatusSuccess
	case report.NonSuccess:
		run.Status = testing.StatusFailure
		message, description = s.Message, s.Description
	case report.Skipped:
		run.Status = testing.StatusSkipped
		message, description = s.Message, s.Description
	}

	switch {
	case message != nil:
		run.StatusMessage = *message
	case description != nil:
		run.StatusMessage = *description
	}

	run.AttemptNumber = len(report.Reruns(status))
}

// ToReport rebuilds a report from runs, grouping them into suites by parent name. It is used to validate run records
// the same way as parsed reports.
func ToReport(name string, runs []testing.TestCaseRun) report.Report {
	r := report.Report{Name: name}
	suites := make(map[string]int)

	for _, run := range runs {
		index, ok := suites[run.ParentName]
		if !ok {
			index = len(r.TestSuites)
			suites[run.ParentName] = index
			r.TestSuites = append(r.TestSuites, report.TestSuite{Name: run.ParentName})
		}

		testCase := report.TestCase{Name: run.Name, Extra: report.Extra{}}

		if run.Classname != "" {
			classname := run.Classname
			testCase.Classname = &classname
		}

		if run.HasTimestamp {
			startedAt := run.StartedAt
			testCase.Timestamp = &startedAt
		}

		if !run.StartedAt.IsZero() && !run.FinishedAt.IsZero() {
			duration := run.Duration()
			testCase.Time = &duration
		}

		if run.ID != "" {
			testCase.Extra[report.KeyID] = run.ID
		}
		if run.File != "" {
			testCase.Extra[report.KeyFile] = run.File
		}
		if run.Line > 0 {
			testCase.Extra[report.KeyLine] = strconv.Itoa(run.Line)
		}

		var message *string
		if run.StatusMessage != "" {
			statusMessage := run.StatusMessage
			message = &statusMessage
		}

		switch run.Status {
		case testing.StatusFailure:
			testCase.Status = report.NonSuccess{Kind: report.KindFailure, Message: message}
		case testing.StatusSkipped:
			testCase.Status = report.Skipped{Message: message}
		case testing.StatusSuccess, testing.StatusUnspecified:
			testCase.Status = report.Success{}
		}

		suite := &r.TestSuites[index]
		suite.TestCases = append(suite.TestCases, testCase)
		suite.Tests++

		r.Tests++
		if run.Status == testing.StatusFailure {
			suite.Failures++
			r.Failures++
		}
	}

	return r
}
