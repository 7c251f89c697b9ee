// Package report holds the canonical in-memory model of a test report: Report → TestSuite → TestCase → Status.
// It is produced by the parsers in `internal/parsing` and consumed by validation and extraction.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Report is one parsed test-run document. The summary counts are copied from the source document and are not
// guaranteed to match the suites; use CountTests to get the actual numbers.
type Report struct {
	Name       string
	UUID       *uuid.UUID
	Timestamp  *time.Time
	Time       *time.Duration
	Tests      int
	Failures   int
	Errors     int
	TestSuites []TestSuite
}

// TestSuite is a named grouping of test cases.
type TestSuite struct {
	Name       string
	Tests      int
	Failures   int
	Errors     int
	Disabled   int
	Timestamp  *time.Time
	Time       *time.Duration
	TestCases  []TestCase
	SystemOut  *string
	SystemErr  *string
	Extra      Extra
	Properties []Property
}

// TestCase is a single executed test.
type TestCase struct {
	Name       string
	Classname  *string
	Assertions *int
	Timestamp  *time.Time
	Time       *time.Duration
	Status     Status
	SystemOut  *string
	SystemErr  *string
	Extra      Extra
	Properties []Property
}

// Property is a free-form name/value pair attached to a suite or case.
type Property struct {
	Name  string
	Value string
}

// Counts holds the recomputed summary of a report.
type Counts struct {
	Tests    int
	Failures int
	Errors   int
	Skipped  int
}

// CountTests walks all suites and counts the test cases by status.
func (r Report) CountTests() Counts {
	var counts Counts

	for _, suite := range r.TestSuites {
		for _, testCase := range suite.TestCases {
			counts.Tests++

			switch status := testCase.Status.(type) {
			case NonSuccess:
				if status.Kind == KindError {
					counts.Errors++
				} else {
					counts.Failures++
				}
			case Skipped:
				counts.Skipped++
			case Success, nil:
			}
		}
	}

	return counts
}

// StatusOrSuccess returns the status of the test case, treating a missing status as a success.
func (tc TestCase) StatusOrSuccess() Status {
	if tc.Status == nil {
		return Success{}
	}

	return tc.Status
}
