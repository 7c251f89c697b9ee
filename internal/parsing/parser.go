package parsing

import (
	"io"

	"github.com/rwx-research/flakeguard/internal/report"
)

// ParseResult is everything a parser extracted from one document. Issues never prevent a result from being returned.
type ParseResult struct {
	Reports []report.Report
	Issues  []ParseIssue
}

// Invalid reports whether any issue has the Invalid level.
func (r ParseResult) Invalid() bool {
	for _, issue := range r.Issues {
		if issue.Level == IssueInvalid {
			return true
		}
	}

	return false
}

// Parser turns a test report document into the canonical report model.
type Parser interface {
	Parse(io.Reader) (*ParseResult, error)
}
