// Package validation grades parsed reports. Validation never fails: every finding is returned as an Issue with a
// Level, and the subset of the report that is safe to use is returned alongside.
package validation

import (
	"sort"
	"time"

	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/identity"
	"github.com/rwx-research/flakeguard/internal/report"
	"github.com/rwx-research/flakeguard/internal/textsafety"
)

const (
	oldAfter   = 24 * time.Hour
	staleAfter = time.Hour
)

// Options configure a validation run.
type Options struct {
	// Now is the reference point for timestamp checks. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) WithDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}

	return o
}

// TestCaseValidation is the result for a single test case.
type TestCaseValidation struct {
	Level  Level
	Issues []Issue
}

func (v *TestCaseValidation) add(level Level, kind Kind, value string) {
	v.Level = Max(v.Level, level)
	v.Issues = append(v.Issues, Issue{Level: level, Scope: ScopeTestCase, Kind: kind, Value: value})
}

// TestSuiteValidation is the result for a test suite. Level only covers the suite's own issues.
type TestSuiteValidation struct {
	Level     Level
	Issues    []Issue
	TestCases []TestCaseValidation
}

func (v *TestSuiteValidation) add(level Level, kind Kind, value string) {
	v.Level = Max(v.Level, level)
	v.Issues = append(v.Issues, Issue{Level: level, Scope: ScopeTestSuite, Kind: kind, Value: value})
}

// MaxLevel is the most severe level of the suite and its test cases.
func (v TestSuiteValidation) MaxLevel() Level {
	level := v.Level
	for _, testCase := range v.TestCases {
		level = Max(level, testCase.Level)
	}

	return level
}

// ReportValidation is the result for a whole report.
type ReportValidation struct {
	// Level covers the report's own issues: test case roll-ups and test runner report issues.
	Level Level
	// Issues holds the report and test runner report scoped issues.
	Issues     []Issue
	TestSuites []TestSuiteValidation
	// ValidTestSuites is the part of the report without invalid suites or test cases.
	ValidTestSuites []report.TestSuite

	all []Issue
}

// AllIssues returns every issue that is not rolled up into a report issue, invalid issues first, then ordered by
// message.
func (v ReportValidation) AllIssues() []Issue {
	return v.all
}

// MaxLevel is the most severe level anywhere in the report.
func (v ReportValidation) MaxLevel() Level {
	level := v.Level
	for _, suite := range v.TestSuites {
		level = Max(level, suite.MaxLevel())
	}

	return level
}

// TestCases returns the validations of every test case across all suites.
func (v ReportValidation) TestCases() []TestCaseValidation {
	testCases := make([]TestCaseValidation, 0)
	for _, suite := range v.TestSuites {
		testCases = append(testCases, suite.TestCases...)
	}

	return testCases
}

func (v ReportValidation) NumInvalidIssues() int {
	return v.count(LevelInvalid)
}

func (v ReportValidation) NumSubOptimalIssues() int {
	return v.count(LevelSubOptimal)
}

func (v ReportValidation) count(level Level) int {
	n := 0
	for _, issue := range v.all {
		if issue.Level == level {
			n++
		}
	}

	return n
}

// Validate grades the report. When a test runner report is given, its start time takes the place of the report's
// timestamps, which may have been written by a machine with a skewed clock.
func Validate(r report.Report, runner *fileset.TestRunnerReport, opts Options) ReportValidation {
	opts = opts.WithDefaults()
	now := opts.Now()

	validation := ReportValidation{TestSuites: make([]TestSuiteValidation, 0, len(r.TestSuites))}

	if runner != nil {
		validation.Issues = append(validation.Issues, validateRunner(*runner, now)...)
	}

	for _, suite := range r.TestSuites {
		suiteValidation := validateSuite(suite)
		validCases := make([]report.TestCase, 0, len(suite.TestCases))

		for _, testCase := range suite.TestCases {
			caseValidation := validateCase(r, suite, testCase, runner, now)
			if caseValidation.Level != LevelInvalid {
				validCases = append(validCases, testCase)
			}

			suiteValidation.TestCases = append(suiteValidation.TestCases, caseValidation)
		}

		if suiteValidation.Level != LevelInvalid {
			valid := suite
			valid.TestCases = validCases
			validation.ValidTestSuites = append(validation.ValidTestSuites, valid)
		}

		validation.TestSuites = append(validation.TestSuites, suiteValidation)
	}

	validation.rollUp()

	return validation
}

func (v *ReportValidation) rollUp() {
	rolledUp := make(map[Kind]struct{})
	all := make([]Issue, 0)

	for _, suite := range v.TestSuites {
		all = append(all, suite.Issues...)

		for _, testCase := range suite.TestCases {
			for _, issue := range testCase.Issues {
				if kind, ok := rollUps[issue.Kind]; ok {
					rolledUp[kind] = struct{}{}
					continue
				}

				all = append(all, issue)
			}
		}
	}

	for kind := range rolledUp {
		v.Issues = append(v.Issues, Issue{Level: LevelSubOptimal, Scope: ScopeReport, Kind: kind})
	}
	sort.SliceStable(v.Issues, func(i, j int) bool { return v.Issues[i].Kind < v.Issues[j].Kind })

	for _, issue := range v.Issues {
		v.Level = Max(v.Level, issue.Level)
	}

	if v.Level == LevelInvalid {
		v.ValidTestSuites = nil
	}

	all = append(all, v.Issues...)
	sort.SliceStable(all, func(i, j int) bool {
		if (all[i].Level == LevelInvalid) != (all[j].Level == LevelInvalid) {
			return all[i].Level == LevelInvalid
		}

		return all[i].Message() < all[j].Message()
	})
	v.all = all
}

func validateRunner(runner fileset.TestRunnerReport, now time.Time) []Issue {
	issues := make([]Issue, 0)
	add := func(kind Kind, value time.Time) {
		issues = append(issues, Issue{
			Level: LevelSubOptimal,
			Scope: ScopeTestRunnerReport,
			Kind:  kind,
			Value: value.Format(time.RFC3339),
		})
	}

	if !runner.StartTime.IsZero() && !runner.EndTime.IsZero() && runner.EndTime.Before(runner.StartTime) {
		add(TestRunnerReportEndBeforeStart, runner.EndTime)
	}

	if runner.StartTime.IsZero() {
		return issues
	}

	switch classify(runner.StartTime, now) {
	case timestampFuture:
		add(TestRunnerReportFutureStartTime, runner.StartTime)
	case timestampOld:
		add(TestRunnerReportOldStartTime, runner.StartTime)
	case timestampStale:
		add(TestRunnerReportStaleStartTime, runner.StartTime)
	case timestampValid:
	}

	return issues
}

func validateSuite(suite report.TestSuite) TestSuiteValidation {
	validation := TestSuiteValidation{TestCases: make([]TestCaseValidation, 0, len(suite.TestCases))}

	switch name := textsafety.CheckFieldLen(suite.Name, textsafety.MaxFieldLen); name.Kind {
	case textsafety.FieldLenTooShort:
		validation.add(LevelInvalid, TestSuiteNameTooShort, name.Value)
	case textsafety.FieldLenTooLong:
		validation.add(LevelSubOptimal, TestSuiteNameTooLong, name.Value)
	case textsafety.FieldLenValid:
	}

	if id, ok := suite.Extra.ID(); ok && !identity.IsUUIDv5(id) {
		validation.add(LevelSubOptimal, TestSuiteInvalidID, id)
	}

	return validation
}

func validateCase(
	r report.Report,
	suite report.TestSuite,
	testCase report.TestCase,
	runner *fileset.TestRunnerReport,
	now time.Time,
) TestCaseValidation {
	validation := TestCaseValidation{}

	switch name := textsafety.CheckFieldLen(testCase.Name, textsafety.MaxFieldLen); name.Kind {
	case textsafety.FieldLenTooShort:
		validation.add(LevelInvalid, TestCaseNameTooShort, name.Value)
	case textsafety.FieldLenTooLong:
		validation.add(LevelSubOptimal, TestCaseNameTooLong, name.Value)
	case textsafety.FieldLenValid:
	}

	if id, ok := testCase.Extra.ID(); ok && !identity.IsUUIDv5(id) {
		validation.add(LevelSubOptimal, TestCaseInvalidID, id)
	}

	file, ok := testCase.Extra.FileOrFilepath()
	if !ok {
		file, _ = suite.Extra.FileOrFilepath()
	}

	switch length := textsafety.CheckFieldLen(file, textsafety.MaxFieldLen); length.Kind {
	case textsafety.FieldLenTooShort:
		validation.add(LevelSubOptimal, TestCaseFileOrFilepathTooShort, length.Value)
	case textsafety.FieldLenTooLong:
		validation.add(LevelSubOptimal, TestCaseFileOrFilepathTooLong, length.Value)
	case textsafety.FieldLenValid:
	}

	if testCase.Classname != nil {
		classname := textsafety.CheckFieldLen(*testCase.Classname, textsafety.MaxFieldLen)
		if classname.Kind == textsafety.FieldLenTooLong {
			validation.add(LevelSubOptimal, TestCaseClassnameTooLong, classname.Value)
		}
	}

	if testCase.Time == nil && suite.Time == nil && r.Time == nil {
		validation.add(LevelSubOptimal, TestCaseNoTimeDuration, "")
	}

	timestamp := firstTimestamp(testCase.Timestamp, suite.Timestamp, r.Timestamp)
	if runner != nil && !runner.StartTime.IsZero() {
		timestamp = &runner.StartTime
	}

	if timestamp == nil {
		validation.add(LevelSubOptimal, TestCaseNoTimestamp, "")
		return validation
	}

	value := timestamp.Format(time.RFC3339)
	switch classify(*timestamp, now) {
	case timestampFuture:
		validation.add(LevelSubOptimal, TestCaseFutureTimestamp, value)
	case timestampOld:
		validation.add(LevelSubOptimal, TestCaseOldTimestamp, value)
	case timestampStale:
		validation.add(LevelSubOptimal, TestCaseStaleTimestamp, value)
	case timestampValid:
	}

	return validation
}

func firstTimestamp(candidates ...*time.Time) *time.Time {
	for _, candidate := range candidates {
		if candidate != nil {
			return candidate
		}
	}

	return nil
}

type timestampClass int

const (
	timestampValid timestampClass = iota
	timestampFuture
	timestampOld
	timestampStale
)

func classify(timestamp, now time.Time) timestampClass {
	age := now.Sub(timestamp)

	switch {
	case now.Before(timestamp):
		return timestampFuture
	case age > oldAfter:
		return timestampOld
	case age > staleAfter:
		return timestampStale
	default:
		return timestampValid
	}
}
