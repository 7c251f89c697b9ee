package testing_test

import (
	"bytes"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

var _ = Describe("Run records", func() {
	var runs []testing.TestCaseRun

	BeforeEach(func() {
		started := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

		runs = []testing.TestCaseRun{
			{
				ID:            "a6e84936-3ee9-57d5-b041-ae124896f654",
				Name:          "rejects blank emails",
				ParentName:    "models",
				Classname:     "User",
				File:          "spec/models/user_spec.rb",
				Line:          42,
				StartedAt:     started,
				FinishedAt:    started.Add(1500 * time.Millisecond),
				HasTimestamp:  true,
				AttemptNumber: 2,
				Status:        testing.StatusFailure,
				StatusMessage: "expected true, got false",
				IsQuarantined: true,
				Codeowners:    []string{"@org/models", "@octocat"},
			},
			{
				Name:       "only a duration",
				StartedAt:  time.Unix(0, 0).UTC(),
				FinishedAt: time.Unix(2, 0).UTC(),
				Status:     testing.StatusSuccess,
			},
			{Name: "nothing known"},
		}
	})

	It("reads back what was written", func() {
		var buf bytes.Buffer
		Expect(testing.WriteRuns(&buf, runs)).To(Succeed())

		read, err := testing.ReadRuns(&buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(runs))
		Expect(read[1].Duration()).To(Equal(2 * time.Second))
		Expect(read[2].StartedAt.IsZero()).To(BeTrue())
	})

	It("keeps times far outside the nanosecond range", func() {
		ancient := time.Date(1200, 3, 4, 5, 6, 7, 8, time.UTC)
		distant := time.Date(2500, 12, 31, 23, 59, 59, 999999999, time.UTC)

		run, err := testing.UnmarshalRun(testing.MarshalRun(testing.TestCaseRun{
			Name:       "time travel",
			StartedAt:  ancient,
			FinishedAt: distant,
		}))
		Expect(err).ToNot(HaveOccurred())
		Expect(run.StartedAt).To(BeTemporally("==", ancient))
		Expect(run.FinishedAt).To(BeTemporally("==", distant))
	})

	It("rejects timestamps with out of range nanoseconds", func() {
		timestamp := protowire.AppendTag(nil, 2, protowire.VarintType)
		timestamp = protowire.AppendVarint(timestamp, uint64(2*time.Second))

		record := protowire.AppendTag(nil, 9, protowire.BytesType)
		record = protowire.AppendBytes(record, timestamp)

		_, err := testing.UnmarshalRun(record)
		Expect(err).To(MatchError(ContainSubstring("nanoseconds")))
	})

	It("reads an empty stream", func() {
		read, err := testing.ReadRuns(bytes.NewReader(nil))
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(BeEmpty())
	})

	It("skips unknown fields", func() {
		record := testing.MarshalRun(runs[0])
		record = protowire.AppendTag(record, 99, protowire.BytesType)
		record = protowire.AppendString(record, "from a newer writer")
		record = protowire.AppendTag(record, 100, protowire.Fixed32Type)
		record = protowire.AppendFixed32(record, 7)

		run, err := testing.UnmarshalRun(record)
		Expect(err).ToNot(HaveOccurred())
		Expect(run).To(Equal(runs[0]))
	})

	It("rejects truncated records", func() {
		var buf bytes.Buffer
		Expect(testing.WriteRuns(&buf, runs[:1])).To(Succeed())

		_, err := testing.ReadRuns(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
		Expect(err).To(HaveOccurred())

		_, ok := errors.AsInputError(err)
		Expect(ok).To(BeTrue())
	})

	It("rejects malformed records", func() {
		_, err := testing.UnmarshalRun([]byte{0x0a, 0x05, 'a'})
		Expect(err).To(MatchError(ContainSubstring("malformed run record")))
	})

	It("returns write errors", func() {
		err := testing.WriteRuns(failingWriter{}, runs)
		Expect(err).To(MatchError(ContainSubstring("disk full")))
	})
})

var _ = Describe("TestCaseRun", func() {
	It("orders runs without a timestamp first", func() {
		started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		Expect(testing.TestCaseRun{}.TimestampMillis()).To(Equal(int64(0)))
		Expect(testing.TestCaseRun{StartedAt: started}.TimestampMillis()).To(Equal(int64(0)))
		Expect(testing.TestCaseRun{StartedAt: started, HasTimestamp: true}.TimestampMillis()).
			To(Equal(started.UnixMilli()))
	})

	It("has a duration only when start and finish are known", func() {
		started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		Expect(testing.TestCaseRun{StartedAt: started}.Duration()).To(Equal(time.Duration(0)))
		Expect(testing.TestCaseRun{StartedAt: started, FinishedAt: started.Add(time.Second)}.Duration()).
			To(Equal(time.Second))
	})

	It("names statuses", func() {
		Expect(testing.StatusSuccess.String()).To(Equal("success"))
		Expect(testing.StatusFailure.String()).To(Equal("failure"))
		Expect(testing.StatusSkipped.String()).To(Equal("skipped"))
		Expect(testing.StatusUnspecified.String()).To(Equal("unspecified"))
	})
})
