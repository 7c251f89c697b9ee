package validation

import (
	"fmt"

	"github.com/rwx-research/flakeguard/internal/textsafety"
)

// Level is the severity of a validation result. Levels are ordered: Valid < SubOptimal < Invalid.
type Level int

const (
	LevelValid Level = iota
	LevelSubOptimal
	LevelInvalid
)

func (l Level) String() string {
	switch l {
	case LevelValid:
		return "valid"
	case LevelSubOptimal:
		return "sub-optimal"
	case LevelInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("unknown (%d)", int(l))
	}
}

// Max returns the more severe of the two levels.
func Max(a, b Level) Level {
	if a > b {
		return a
	}

	return b
}

// Scope is the part of the report an issue was found in.
type Scope int

const (
	ScopeReport Scope = iota
	ScopeTestSuite
	ScopeTestCase
	ScopeTestRunnerReport
)

func (s Scope) String() string {
	switch s {
	case ScopeReport:
		return "report"
	case ScopeTestSuite:
		return "test suite"
	case ScopeTestCase:
		return "test case"
	case ScopeTestRunnerReport:
		return "test runner report"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

// Kind identifies a validation issue.
type Kind int

const (
	// Report scope. These are roll-ups of test case issues.
	TestCasesFileOrFilepathMissing Kind = iota + 1
	MissingTimestamps
	FutureTimestamps
	OldTimestamps
	StaleTimestamps

	TestSuiteNameTooShort
	TestSuiteNameTooLong
	TestSuiteInvalidID

	TestCaseNameTooShort
	TestCaseNameTooLong
	TestCaseInvalidID
	TestCaseFileOrFilepathTooShort
	TestCaseFileOrFilepathTooLong
	TestCaseClassnameTooLong
	TestCaseNoTimeDuration
	TestCaseNoTimestamp
	TestCaseFutureTimestamp
	TestCaseOldTimestamp
	TestCaseStaleTimestamp

	TestRunnerReportEndBeforeStart
	TestRunnerReportFutureStartTime
	TestRunnerReportOldStartTime
	TestRunnerReportStaleStartTime
)

var oldDays = int(oldAfter.Hours() / 24)

var staleHours = int(staleAfter.Hours())

var messages = map[Kind]string{
	TestCasesFileOrFilepathMissing: "report has test cases with missing file or filepath",
	MissingTimestamps:              "report has test cases with missing timestamp",
	FutureTimestamps:               "report has test cases with future timestamp",
	OldTimestamps:                  fmt.Sprintf("report has old (> %d day(s)) timestamps", oldDays),
	StaleTimestamps:                fmt.Sprintf("report has stale (> %d hour(s)) timestamps", staleHours),

	TestSuiteNameTooShort: "test suite name too short",
	TestSuiteNameTooLong:  fmt.Sprintf("test suite name too long, truncated to %d", textsafety.MaxFieldLen),
	TestSuiteInvalidID:    "test suite id is not a valid uuidv5",

	TestCaseNameTooShort:           "test case name too short",
	TestCaseNameTooLong:            fmt.Sprintf("test case name too long, truncated to %d", textsafety.MaxFieldLen),
	TestCaseInvalidID:              "test case id is not a valid uuidv5",
	TestCaseFileOrFilepathTooShort: "test case file or filepath too short",
	TestCaseFileOrFilepathTooLong:  "test case file or filepath too long",
	TestCaseClassnameTooLong:       fmt.Sprintf("test case classname too long, truncated to %d", textsafety.MaxFieldLen),
	TestCaseNoTimeDuration:         "test case or parent has no time duration",
	TestCaseNoTimestamp:            "test case or parent has no timestamp",
	TestCaseFutureTimestamp:        "test case or parent has future timestamp",
	TestCaseOldTimestamp:           fmt.Sprintf("test case or parent has old (> %d day(s)) timestamp", oldDays),
	TestCaseStaleTimestamp:         fmt.Sprintf("test case or parent has stale (> %d hour(s)) timestamp", staleHours),

	TestRunnerReportEndBeforeStart:  "test runner report end time is before its start time",
	TestRunnerReportFutureStartTime: "test runner report has future start time",
	TestRunnerReportOldStartTime:    fmt.Sprintf("test runner report has old (> %d day(s)) start time", oldDays),
	TestRunnerReportStaleStartTime:  fmt.Sprintf("test runner report has stale (> %d hour(s)) start time", staleHours),
}

// rollUps maps test case issues to the single report issue that replaces all of their occurrences.
var rollUps = map[Kind]Kind{
	TestCaseFileOrFilepathTooShort: TestCasesFileOrFilepathMissing,
	TestCaseNoTimestamp:            MissingTimestamps,
	TestCaseFutureTimestamp:        FutureTimestamps,
	TestCaseOldTimestamp:           OldTimestamps,
	TestCaseStaleTimestamp:         StaleTimestamps,
}

func (k Kind) String() string {
	if message, ok := messages[k]; ok {
		return message
	}

	return fmt.Sprintf("unknown issue (%d)", int(k))
}

// Issue is a single validation finding.
type Issue struct {
	Level Level
	Scope Scope
	Kind  Kind
	// Value is the offending value, if there is one. Values that are too long are truncated.
	Value string
}

// Message is the human-readable description of the issue.
func (i Issue) Message() string {
	return i.Kind.String()
}

func (i Issue) String() string {
	if i.Value == "" {
		return fmt.Sprintf("%s: %s", i.Scope, i.Message())
	}

	return fmt.Sprintf("%s: %s (%q)", i.Scope, i.Message(), i.Value)
}
