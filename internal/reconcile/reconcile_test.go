package reconcile_test

import (
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/reconcile"
	"github.com/rwx-research/flakeguard/internal/testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func run(id string, status testing.Status, offset time.Duration) testing.TestCaseRun {
	return testing.TestCaseRun{
		ID:           id,
		Name:         id,
		Status:       status,
		StartedAt:    epoch.Add(offset),
		HasTimestamp: true,
	}
}

func ids(runs []testing.TestCaseRun) []string {
	result := make([]string, 0, len(runs))
	for _, r := range runs {
		result = append(result, r.ID)
	}

	return result
}

var _ = Describe("Reconcile", func() {
	It("keeps a failure that was followed by nothing", func() {
		failures := reconcile.Reconcile([]reconcile.Input{{Runs: []testing.TestCaseRun{
			run("a", testing.StatusFailure, 0),
			run("b", testing.StatusSuccess, 0),
		}}})

		Expect(ids(failures)).To(Equal([]string{"a"}))
	})

	It("drops a failure that was superseded by a later success", func() {
		failures := reconcile.Reconcile([]reconcile.Input{
			{Runs: []testing.TestCaseRun{run("a", testing.StatusFailure, 0)}},
			{Runs: []testing.TestCaseRun{run("a", testing.StatusSuccess, time.Minute)}},
		})

		Expect(failures).To(BeEmpty())
	})

	It("keeps a failure that came after a success", func() {
		failures := reconcile.Reconcile([]reconcile.Input{
			{Runs: []testing.TestCaseRun{run("a", testing.StatusFailure, time.Minute)}},
			{Runs: []testing.TestCaseRun{run("a", testing.StatusSuccess, 0)}},
		})

		Expect(ids(failures)).To(Equal([]string{"a"}))
	})

	It("keeps the failure on a tie", func() {
		failures := reconcile.Reconcile([]reconcile.Input{{Runs: []testing.TestCaseRun{
			run("a", testing.StatusSuccess, 0),
			run("a", testing.StatusFailure, 0),
		}}})

		Expect(ids(failures)).To(Equal([]string{"a"}))
	})

	It("keeps the latest failure, and the last one seen on a tie", func() {
		first := run("a", testing.StatusFailure, time.Minute)
		first.StatusMessage = "first"
		tied := run("a", testing.StatusFailure, time.Minute)
		tied.StatusMessage = "tied"
		earlier := run("a", testing.StatusFailure, 0)
		earlier.StatusMessage = "earlier"

		failures := reconcile.Reconcile([]reconcile.Input{{Runs: []testing.TestCaseRun{first, tied, earlier}}})

		Expect(cmp.Diff([]testing.TestCaseRun{tied}, failures)).To(BeEmpty())
	})

	It("treats missing timestamps as the lowest value", func() {
		failure := run("a", testing.StatusFailure, 0)
		failure.HasTimestamp = false

		failures := reconcile.Reconcile([]reconcile.Input{{Runs: []testing.TestCaseRun{
			failure,
			run("a", testing.StatusSuccess, 0),
			{ID: "b", Status: testing.StatusFailure},
		}}})

		Expect(ids(failures)).To(Equal([]string{"b"}))
	})

	It("ignores skipped and unspecified runs", func() {
		failures := reconcile.Reconcile([]reconcile.Input{{Runs: []testing.TestCaseRun{
			run("a", testing.StatusFailure, 0),
			run("a", testing.StatusSkipped, time.Hour),
			run("b", testing.StatusUnspecified, 0),
		}}})

		Expect(ids(failures)).To(Equal([]string{"a"}))
	})

	It("skips file sets whose runner did not report a failure", func() {
		failures := reconcile.Reconcile([]reconcile.Input{
			{
				TestRunnerReport: &fileset.TestRunnerReport{ResolvedStatus: fileset.RunnerStatusPassed},
				Runs:             []testing.TestCaseRun{run("a", testing.StatusFailure, 0)},
			},
			{
				TestRunnerReport: &fileset.TestRunnerReport{ResolvedStatus: fileset.RunnerStatusFlaky},
				Runs:             []testing.TestCaseRun{run("b", testing.StatusFailure, 0)},
			},
			{
				TestRunnerReport: &fileset.TestRunnerReport{ResolvedStatus: fileset.RunnerStatusFailed},
				Runs:             []testing.TestCaseRun{run("c", testing.StatusFailure, 0)},
			},
			{
				TestRunnerReport: &fileset.TestRunnerReport{},
				Runs:             []testing.TestCaseRun{run("d", testing.StatusFailure, 0)},
			},
		})

		Expect(ids(failures)).To(Equal([]string{"c", "d"}))
	})

	It("orders failures by ID", func() {
		failures := reconcile.Reconcile([]reconcile.Input{{Runs: []testing.TestCaseRun{
			run("c", testing.StatusFailure, 0),
			run("a", testing.StatusFailure, 0),
			run("b", testing.StatusFailure, 0),
		}}})

		Expect(ids(failures)).To(Equal([]string{"a", "b", "c"}))
	})
})

var _ = Describe("State", func() {
	inputs := []reconcile.Input{
		{Runs: []testing.TestCaseRun{
			run("a", testing.StatusFailure, 0),
			run("b", testing.StatusSuccess, time.Minute),
		}},
		{Runs: []testing.TestCaseRun{
			run("a", testing.StatusSuccess, time.Minute),
			run("b", testing.StatusFailure, 0),
			run("c", testing.StatusFailure, time.Minute),
		}},
		{Runs: []testing.TestCaseRun{
			run("a", testing.StatusFailure, 2*time.Minute),
			run("c", testing.StatusSuccess, time.Minute),
			run("d", testing.StatusFailure, 0),
		}},
	}

	stateOf := func(inputs ...reconcile.Input) *reconcile.State {
		state := reconcile.NewState()
		for _, input := range inputs {
			state.Add(input)
		}

		return state
	}

	It("matches a sequential fold when merged in any grouping", func() {
		sequential := reconcile.Reconcile(inputs)

		left := stateOf(inputs[0], inputs[1])
		left.Merge(stateOf(inputs[2]))

		right := stateOf(inputs[0])
		tail := stateOf(inputs[1])
		tail.Merge(stateOf(inputs[2]))
		right.Merge(tail)

		Expect(cmp.Diff(sequential, left.Failures())).To(BeEmpty())
		Expect(cmp.Diff(sequential, right.Failures())).To(BeEmpty())
		Expect(ids(sequential)).To(Equal([]string{"a", "c", "d"}))
	})

	It("prefers the failure of the later state on a tie", func() {
		earlier := run("a", testing.StatusFailure, time.Minute)
		earlier.StatusMessage = "earlier file"
		later := run("a", testing.StatusFailure, time.Minute)
		later.StatusMessage = "later file"

		state := stateOf(reconcile.Input{Runs: []testing.TestCaseRun{earlier}})
		state.Merge(stateOf(reconcile.Input{Runs: []testing.TestCaseRun{later}}))

		Expect(cmp.Diff([]testing.TestCaseRun{later}, state.Failures())).To(BeEmpty())
	})

	It("merges empty states", func() {
		state := stateOf(inputs...)
		state.Merge(reconcile.NewState())

		Expect(cmp.Diff(reconcile.Reconcile(inputs), state.Failures())).To(BeEmpty())
	})
})
