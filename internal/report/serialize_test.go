package report_test

import (
	"errors"
	"time"

	"github.com/bradleyjkemp/cupaloy"
	"github.com/google/uuid"

	"github.com/rwx-research/flakeguard/internal/report"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("Marshal", func() {
	timestamp := time.Date(2023, 1, 2, 3, 4, 5, 123000000, time.UTC)
	id := uuid.MustParse("a6e84936-3ee9-57d5-b041-ae124896f654")

	r := report.Report{
		Name:      "report",
		UUID:      &id,
		Timestamp: &timestamp,
		Time:      ptr(1500 * time.Millisecond),
		Tests:     2,
		Failures:  1,
		TestSuites: []report.TestSuite{{
			Name:       "suite",
			Tests:      2,
			Failures:   1,
			Disabled:   1,
			Extra:      report.Extra{report.KeyLine: "1", report.KeyFile: "a.go"},
			Properties: []report.Property{{Name: "seed", Value: "42"}},
			SystemOut:  ptr("suite output"),
			TestCases: []report.TestCase{
				{
					Name:      "passes",
					Classname: ptr("A"),
					Time:      ptr(time.Millisecond),
					Status: report.Success{FlakyRuns: []report.TestRerun{{
						Kind:       report.KindFailure,
						Message:    ptr("timed out"),
						StackTrace: ptr("at a.go:1"),
					}}},
				},
				{
					Name:       "fails <x>",
					Assertions: ptr(2),
					Timestamp:  &timestamp,
					Status: report.NonSuccess{
						Kind:        report.KindError,
						Message:     ptr("boom & bust"),
						Type:        ptr("panic"),
						Description: ptr("stack"),
						Reruns:      []report.TestRerun{{Kind: report.KindError, SystemErr: ptr("err")}},
					},
					SystemOut: ptr("out"),
				},
			},
		}},
	}

	It("writes the XML dialect", func() {
		serialized, err := report.Marshal(r)
		Expect(err).ToNot(HaveOccurred())

		output := string(serialized)
		Expect(output).To(HavePrefix(`<?xml version="1.0" encoding="UTF-8"?>`))
		Expect(output).To(ContainSubstring(
			`<testsuites name="report" tests="2" failures="1" errors="0" timestamp="2023-01-02T03:04:05.123Z" ` +
				`time="1.500" uuid="a6e84936-3ee9-57d5-b041-ae124896f654">`,
		))
		Expect(output).To(ContainSubstring(`disabled="1" file="a.go" line="1">`))
		Expect(output).To(ContainSubstring(`<flakyFailure message="timed out">`))
		Expect(output).To(ContainSubstring(`<error message="boom &amp; bust" type="panic">stack</error>`))
		Expect(output).To(ContainSubstring(`<rerunError>`))
		Expect(output).To(ContainSubstring(`name="fails &lt;x&gt;"`))

		cupaloy.New(cupaloy.FailOnUpdate(false)).SnapshotT(GinkgoT(), output)
	})

	It("treats a missing status as a success", func() {
		serialized, err := report.Marshal(report.Report{
			Name:       "r",
			TestSuites: []report.TestSuite{{Name: "s", TestCases: []report.TestCase{{Name: "t"}}}},
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(string(serialized)).NotTo(ContainSubstring("<failure"))
		Expect(string(serialized)).To(ContainSubstring(`<testcase name="t"></testcase>`))
	})

	It("returns write errors", func() {
		Expect(report.Write(failingWriter{}, r)).To(MatchError(ContainSubstring("disk full")))
	})
})

var _ = Describe("FormatSeconds", func() {
	It("renders milliseconds", func() {
		Expect(report.FormatSeconds(1234567 * time.Microsecond)).To(Equal("1.235"))
		Expect(report.FormatSeconds(0)).To(Equal("0.000"))
	})
})
