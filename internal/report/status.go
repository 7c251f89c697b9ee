package report

import "time"

// Status is the outcome of a test case. It is exactly one of Success, NonSuccess or Skipped.
type Status interface {
	isStatus()
}

// NonSuccessKind distinguishes assertion failures from errors.
type NonSuccessKind int

const (
	KindFailure NonSuccessKind = iota
	KindError
)

func (k NonSuccessKind) String() string {
	if k == KindError {
		return "error"
	}

	return "failure"
}

// Success is a passing test. FlakyRuns holds earlier attempts that failed before the test passed.
type Success struct {
	FlakyRuns []TestRerun
}

// NonSuccess is a failing or erroring test. Reruns holds further attempts that also did not succeed.
type NonSuccess struct {
	Kind        NonSuccessKind
	Message     *string
	Type        *string
	Description *string
	Reruns      []TestRerun
}

// Skipped is a test that was not executed.
type Skipped struct {
	Message     *string
	Type        *string
	Description *string
}

func (Success) isStatus()    {}
func (NonSuccess) isStatus() {}
func (Skipped) isStatus()    {}

// TestRerun is a single retry attempt recorded inside a test case status.
type TestRerun struct {
	Kind        NonSuccessKind
	Timestamp   *time.Time
	Time        *time.Duration
	Message     *string
	Type        *string
	Description *string
	StackTrace  *string
	SystemOut   *string
	SystemErr   *string
}

// WithRerun returns the status with the rerun attached. Reruns of a success are recorded as flaky runs; skipped tests
// cannot carry reruns and are returned unchanged.
func WithRerun(status Status, rerun TestRerun) Status {
	switch s := status.(type) {
	case Success:
		s.FlakyRuns = append(s.FlakyRuns, rerun)
		return s
	case NonSuccess:
		s.Reruns = append(s.Reruns, rerun)
		return s
	case Skipped:
		return s
	default:
		return Success{FlakyRuns: []TestRerun{rerun}}
	}
}

// Reruns returns the attempts recorded on the status, regardless of its variant.
func Reruns(status Status) []TestRerun {
	switch s := status.(type) {
	case Success:
		return s.FlakyRuns
	case NonSuccess:
		return s.Reruns
	case Skipped:
		return nil
	default:
		return nil
	}
}
