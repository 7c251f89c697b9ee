package fileset_test

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rwx-research/flakeguard/internal/codeowners"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/mocks"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Builder", func() {
	var (
		builder    fileset.Builder
		fileSystem *mocks.FileSystem
		globs      map[string][]string
		modified   time.Time
		logs       *observer.ObservedLogs
	)

	BeforeEach(func() {
		globs = map[string][]string{}
		modified = time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

		fileSystem = &mocks.FileSystem{
			MockGlob: func(pattern string) ([]string, error) {
				return globs[pattern], nil
			},
			MockStat: func(name string) (os.FileInfo, error) {
				return mocks.FileInfo{FileName: name, ModifiedAt: modified}, nil
			},
		}

		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)

		builder = fileset.Builder{
			FileSystem: fileSystem,
			RepoRoot:   "/repo",
			Log:        zap.New(core).Sugar(),
		}
	})

	It("requires a file system and a logger", func() {
		_, err := fileset.Builder{}.Build(nil)
		Expect(err).To(HaveOccurred())
	})

	It("expands globs relative to the repository root", func() {
		globs["/repo/reports/*.xml"] = []string{"/repo/reports/a.xml", "/repo/reports/b.xml"}
		globs["/tmp/runs.bin"] = []string{"/tmp/runs.bin"}
		runner := &fileset.TestRunnerReport{ResolvedStatus: fileset.RunnerStatusFailed}

		result, err := builder.Build([]fileset.Input{
			{Glob: "reports/*.xml", TestRunnerReport: runner},
			{Glob: "/tmp/runs.bin"},
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Count).To(Equal(3))
		Expect(result.NoFilesFound()).To(BeFalse())
		Expect(result.FileSets).To(HaveLen(2))

		junit := result.FileSets[0]
		Expect(junit.Type).To(Equal(fileset.TypeJunit))
		Expect(junit.Glob).To(Equal("reports/*.xml"))
		Expect(junit.TestRunnerReport).To(BeIdenticalTo(runner))
		Expect(junit.Files).To(Equal([]fileset.File{
			{OriginalPath: "/repo/reports/a.xml", RelativePath: "reports/a.xml", Path: "junit/0", LastModified: modified},
			{OriginalPath: "/repo/reports/b.xml", RelativePath: "reports/b.xml", Path: "junit/1", LastModified: modified},
		}))

		internal := result.FileSets[1]
		Expect(internal.Type).To(Equal(fileset.TypeInternal))
		Expect(internal.Files[0].Path).To(Equal("internal/2"))
		Expect(internal.Files[0].RelativePath).To(Equal(""))
		Expect(internal.Files[0].DisplayPath()).To(Equal("/tmp/runs.bin"))
	})

	It("ignores files that are neither reports nor run records", func() {
		globs["/repo/out/*"] = []string{"/repo/out/a.xml", "/repo/out/log.txt"}

		result, err := builder.Build([]fileset.Input{{Glob: "out/*"}})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Count).To(Equal(1))
		Expect(logs.FilterMessageSnippet("log.txt").Len()).To(Equal(1))
	})

	It("treats globs without matches as directories", func() {
		globs["/repo/reports/**/*.xml"] = []string{"/repo/reports/nested/a.xml"}

		result, err := builder.Build([]fileset.Input{{Glob: "reports"}})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Count).To(Equal(1))
		Expect(result.FileSets).To(HaveLen(2))
		Expect(result.FileSets[0].Glob).To(Equal("reports/**/*.xml"))
		Expect(result.FileSets[1].Glob).To(Equal("reports/**/*.bin"))
		Expect(result.FileSets[1].Files).To(BeEmpty())
	})

	It("reports when nothing was found", func() {
		result, err := builder.Build([]fileset.Input{{Glob: "nothing/*.xml"}})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.NoFilesFound()).To(BeTrue())
	})

	It("skips files that were not modified since the command started", func() {
		globs["/repo/*.xml"] = []string{"/repo/a.xml"}
		builder.ExecStart = modified.Add(time.Second)

		result, err := builder.Build([]fileset.Input{{Glob: "*.xml"}})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.FileSets[0].Files).To(BeEmpty())
		Expect(logs.FilterLevelExact(zapcore.WarnLevel).Len()).To(Equal(1))
	})

	It("attributes owners to every file", func() {
		globs["/repo/*.xml"] = []string{"/repo/a.xml"}
		builder.Codeowners = codeowners.LookupFunc(func(path string) ([]string, bool) {
			return []string{"@owner-of-" + path}, true
		})

		result, err := builder.Build([]fileset.Input{{Glob: "*.xml"}})

		Expect(err).ToNot(HaveOccurred())
		Expect(result.FileSets[0].Files[0].Owners).To(Equal([]string{"@owner-of-a.xml"}))
	})

	It("returns glob errors", func() {
		fileSystem.MockGlob = func(string) ([]string, error) {
			return nil, errors.NewSystemError("syntax error in pattern")
		}

		_, err := builder.Build([]fileset.Input{{Glob: "[.xml"}})
		Expect(err).To(MatchError(ContainSubstring("syntax error in pattern")))
	})
})

var _ = Describe("ParseRunnerStatus", func() {
	It("parses all statuses", func() {
		for _, status := range []fileset.RunnerStatus{
			fileset.RunnerStatusPassed,
			fileset.RunnerStatusFailed,
			fileset.RunnerStatusFlaky,
		} {
			parsed, err := fileset.ParseRunnerStatus(status.String())
			Expect(err).ToNot(HaveOccurred())
			Expect(parsed).To(Equal(status))
		}

		_, err := fileset.ParseRunnerStatus("unknown")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseTestRunnerReport", func() {
	It("is nil without any values", func() {
		runnerReport, err := fileset.ParseTestRunnerReport("", "", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(runnerReport).To(BeNil())
	})

	It("parses the status and times", func() {
		runnerReport, err := fileset.ParseTestRunnerReport(
			"Failed",
			"2024-03-01T10:00:00Z",
			"2024-03-01T10:05:30.5Z",
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(runnerReport.ResolvedStatus).To(Equal(fileset.RunnerStatusFailed))
		Expect(runnerReport.StartTime).To(BeTemporally("==", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
		Expect(runnerReport.EndTime).To(BeTemporally("==", time.Date(2024, 3, 1, 10, 5, 30, 500000000, time.UTC)))
	})

	It("leaves the status unset when only times are given", func() {
		runnerReport, err := fileset.ParseTestRunnerReport("", "2024-03-01T10:00:00Z", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(runnerReport.ResolvedStatus).To(BeZero())
		Expect(runnerReport.EndTime.IsZero()).To(BeTrue())
	})

	It("rejects malformed times", func() {
		_, err := fileset.ParseTestRunnerReport("passed", "yesterday", "")

		_, ok := errors.AsInputError(err)
		Expect(ok).To(BeTrue())
	})

	It("rejects unknown statuses", func() {
		_, err := fileset.ParseTestRunnerReport("sideways", "", "")
		Expect(err).To(HaveOccurred())
	})
})
