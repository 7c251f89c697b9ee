// Package quarantine decides whether failing tests are quarantined and which exit code the test run ends with.
package quarantine

import "github.com/rwx-research/flakeguard/internal/testing"

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Config is the quarantine configuration of a repository.
type Config struct {
	IsDisabled     bool
	QuarantinedIDs map[string]struct{}
}

// IsQuarantined reports whether the test with the given ID is known to be quarantined.
func (c *Config) IsQuarantined(id string) bool {
	if c == nil {
		return false
	}

	_, ok := c.QuarantinedIDs[id]
	return ok
}

// FetchKind is the outcome of fetching the quarantine configuration.
type FetchKind int

const (
	FetchSucceeded FetchKind = iota
	FetchSkipped
	FetchFailed
)

func (k FetchKind) String() string {
	switch k {
	case FetchSucceeded:
		return "succeeded"
	case FetchSkipped:
		return "skipped"
	case FetchFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchStatus records whether the configuration a decision is based on could be fetched.
type FetchStatus struct {
	Kind   FetchKind
	Reason string
}

// Decision is the result of Decide.
type Decision struct {
	ExitCode int
	// Quarantined and NotQuarantined partition the failures.
	Quarantined    []testing.TestCaseRun
	NotQuarantined []testing.TestCaseRun
	// GroupIsQuarantined is set when there are failures and every one of them is quarantined.
	GroupIsQuarantined bool
	FetchStatus        FetchStatus
	// Disabled is set when quarantining did not affect the exit code.
	Disabled bool
}

// DefaultExitCode is the exit code without any quarantining: the prior exit code if there is one, and otherwise a
// failure if any test failed.
func DefaultExitCode(failures []testing.TestCaseRun, prior *int) int {
	if prior != nil {
		return *prior
	}

	if len(failures) > 0 {
		return ExitFailure
	}

	return ExitSuccess
}

// Decide partitions the failures into quarantined and not quarantined ones and derives the exit code.
//
// A failure is quarantined when the configuration lists it or when the run was already marked as quarantined. When
// the configuration could not be fetched, cfg is nil and only the marks on the runs count. A disabled configuration
// leaves the prior exit code (or success, if there is none) untouched.
func Decide(failures []testing.TestCaseRun, cfg *Config, fetch FetchStatus, prior *int) Decision {
	decision := Decision{
		Quarantined:    make([]testing.TestCaseRun, 0),
		NotQuarantined: make([]testing.TestCaseRun, 0),
		FetchStatus:    fetch,
		Disabled:       cfg != nil && cfg.IsDisabled,
	}

	for _, failure := range failures {
		quarantined := failure.IsQuarantined
		if !decision.Disabled && cfg.IsQuarantined(failure.ID) {
			quarantined = true
		}

		if quarantined {
			decision.Quarantined = append(decision.Quarantined, failure)
		} else {
			decision.NotQuarantined = append(decision.NotQuarantined, failure)
		}
	}

	decision.GroupIsQuarantined = len(failures) > 0 && len(decision.Quarantined) == len(failures)

	switch {
	case decision.Disabled:
		decision.ExitCode = ExitSuccess
		if prior != nil {
			decision.ExitCode = *prior
		}
	case decision.GroupIsQuarantined:
		decision.ExitCode = ExitSuccess
	default:
		decision.ExitCode = DefaultExitCode(failures, prior)
	}

	return decision
}
