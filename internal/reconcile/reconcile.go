// Package reconcile collapses repeated executions of the same test into the set of tests that are still failing.
package reconcile

import (
	"sort"

	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/testing"
)

// Input is the runs extracted from one file set.
type Input struct {
	// TestRunnerReport is the outcome the test runner reported for the file set, if any.
	TestRunnerReport *fileset.TestRunnerReport
	Runs             []testing.TestCaseRun
}

// contributes reports whether the input can contain failures. File sets whose runner reported anything but a failure
// are skipped entirely.
func (i Input) contributes() bool {
	if i.TestRunnerReport == nil || i.TestRunnerReport.ResolvedStatus == 0 {
		return true
	}

	return i.TestRunnerReport.ResolvedStatus == fileset.RunnerStatusFailed
}

// State is a partial reconciliation. States built from disjoint inputs can be merged in any grouping.
type State struct {
	successes map[string]int64
	failures  map[string]testing.TestCaseRun
}

func NewState() *State {
	return &State{
		successes: make(map[string]int64),
		failures:  make(map[string]testing.TestCaseRun),
	}
}

// Add folds the runs of one input into the state.
func (s *State) Add(input Input) {
	if !input.contributes() {
		return
	}

	for _, run := range input.Runs {
		switch run.Status {
		case testing.StatusSuccess:
			s.addSuccess(run.ID, run.TimestampMillis())
		case testing.StatusFailure:
			s.addFailure(run)
		case testing.StatusSkipped, testing.StatusUnspecified:
		}
	}
}

func (s *State) addSuccess(id string, timestamp int64) {
	if existing, ok := s.successes[id]; ok && existing > timestamp {
		return
	}

	s.successes[id] = timestamp
}

// addFailure keeps the latest failure. On equal timestamps the failure seen last replaces the earlier one.
func (s *State) addFailure(run testing.TestCaseRun) {
	if existing, ok := s.failures[run.ID]; ok && existing.TimestampMillis() > run.TimestampMillis() {
		return
	}

	s.failures[run.ID] = run
}

// Merge folds another state, built from inputs that came after the ones in s, into s.
func (s *State) Merge(other *State) {
	for id, timestamp := range other.successes {
		s.addSuccess(id, timestamp)
	}

	for _, run := range other.failures {
		s.addFailure(run)
	}
}

// Failures returns the tests whose latest failure is not older than their latest success, ordered by ID.
func (s *State) Failures() []testing.TestCaseRun {
	failures := make([]testing.TestCaseRun, 0, len(s.failures))

	for id, failure := range s.failures {
		if success, ok := s.successes[id]; ok && success > failure.TimestampMillis() {
			continue
		}

		failures = append(failures, failure)
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].ID < failures[j].ID })

	return failures
}

// Reconcile returns the tests that are still failing across all inputs.
func Reconcile(inputs []Input) []testing.TestCaseRun {
	state := NewState()
	for _, input := range inputs {
		state.Add(input)
	}

	return state.Failures()
}
