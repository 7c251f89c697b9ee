// Package testing holds the normalized, format-independent representation of test executions.
package testing

import "time"

// TestCaseRun is a single execution of a test, extracted from a report.
type TestCaseRun struct {
	ID         string
	Name       string
	ParentName string
	Classname  string
	File       string
	Line       int
	// StartedAt is the zero time when the report carried no timestamp. When only a duration was known, it is pinned
	// to the Unix epoch so that FinishedAt still carries the duration.
	StartedAt    time.Time
	FinishedAt   time.Time
	HasTimestamp bool

	AttemptNumber int
	Status        Status
	StatusMessage string
	IsQuarantined bool
	Codeowners    []string
}

// Duration is the time between start and finish, if both are known.
func (r TestCaseRun) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// TimestampMillis is the start of the run in milliseconds since the Unix epoch. Runs without a timestamp compare
// lower than every run that has one.
func (r TestCaseRun) TimestampMillis() int64 {
	if !r.HasTimestamp || r.StartedAt.IsZero() {
		return 0
	}

	return r.StartedAt.UnixMilli()
}
