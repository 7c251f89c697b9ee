package testing

// Status is the normalized outcome of a single test execution.
type Status int

const (
	StatusUnspecified Status = iota
	StatusSuccess
	StatusFailure
	StatusSkipped
)

// String returns the string representation of a status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSkipped:
		return "skipped"
	case StatusUnspecified:
		fallthrough
	default:
		return "unspecified"
	}
}
