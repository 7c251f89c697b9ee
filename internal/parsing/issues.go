package parsing

import "fmt"

// IssueLevel is the severity of a ParseIssue.
type IssueLevel int

const (
	IssueSubOptimal IssueLevel = iota + 1
	IssueInvalid
)

func (l IssueLevel) String() string {
	switch l {
	case IssueSubOptimal:
		return "SubOptimal"
	case IssueInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Unknown (%d)", l)
	}
}

// IssueKind names a structural anomaly found while parsing.
type IssueKind int

const (
	ReportName IssueKind = iota
	ReportNotFound
	ReportMultipleFound
	ReportStartTagNotFound
	TestSuiteName
	TestSuiteReportNotFound
	TestSuiteStartTagNotFound
	TestCaseName
	TestCaseTestSuiteNotFound
	TestCaseStartTagNotFound
	TestCaseStatusTestCaseNotFound
	TestRerunStartTagNotFound
	TestRerunTestCaseNotFound
	SystemOutEmpty
	SystemErrEmpty
	StackTraceEmpty
	MalformedDocument
)

var issueMessages = map[IssueKind]string{
	ReportName:                     "could not parse report name",
	ReportNotFound:                 "no reports found",
	ReportMultipleFound:            "multiple reports found",
	ReportStartTagNotFound:         "report end tag found without start tag",
	TestSuiteName:                  "could not parse test suite name",
	TestSuiteReportNotFound:        "test suite found without a report found",
	TestSuiteStartTagNotFound:      "test suite end tag found without start tag",
	TestCaseName:                   "could not parse test case name",
	TestCaseTestSuiteNotFound:      "test case found without a test suite found",
	TestCaseStartTagNotFound:       "test case end tag found without start tag",
	TestCaseStatusTestCaseNotFound: "test case status found without a test case found",
	TestRerunStartTagNotFound:      "test rerun end tag found without start tag",
	TestRerunTestCaseNotFound:      "test rerun found without a test case found",
	SystemOutEmpty:                 "system out is empty",
	SystemErrEmpty:                 "system err is empty",
	StackTraceEmpty:                "stack trace is empty",
	MalformedDocument:              "document is not well-formed XML",
}

func (k IssueKind) String() string {
	if msg, ok := issueMessages[k]; ok {
		return msg
	}

	return fmt.Sprintf("unknown parse issue (%d)", int(k))
}

// Level returns the severity this kind of issue is always reported with.
func (k IssueKind) Level() IssueLevel {
	switch k {
	case ReportName, ReportNotFound, SystemOutEmpty, SystemErrEmpty, StackTraceEmpty:
		return IssueSubOptimal
	default:
		return IssueInvalid
	}
}

// ParseIssue is a structural anomaly. Issues never abort parsing.
type ParseIssue struct {
	Level IssueLevel
	Kind  IssueKind
}

func (i ParseIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Level, i.Kind)
}

func newIssue(kind IssueKind) ParseIssue {
	return ParseIssue{Level: kind.Level(), Kind: kind}
}
