package reporting_test

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/fs"
	"github.com/rwx-research/flakeguard/internal/mocks"
	"github.com/rwx-research/flakeguard/internal/parsing"
	"github.com/rwx-research/flakeguard/internal/report"
	"github.com/rwx-research/flakeguard/internal/reporting"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WriteNormalizedReports", func() {
	var (
		fileSystem mocks.FileSystem
		created    map[string]*mocks.File
		dirs       []string
	)

	suite := func(name string) report.TestSuite {
		return report.TestSuite{
			Name:      name,
			TestCases: []report.TestCase{{Name: name + " works", Status: report.Success{}}},
		}
	}

	BeforeEach(func() {
		created = make(map[string]*mocks.File)
		dirs = nil

		fileSystem = mocks.FileSystem{
			MockMkdirAll: func(path string) error {
				dirs = append(dirs, path)
				return nil
			},
			MockCreate: func(path string) (fs.File, error) {
				file := &mocks.File{Builder: new(strings.Builder)}
				created[path] = file
				return file, nil
			},
		}
	})

	It("writes one file per report", func() {
		paths, err := reporting.WriteNormalizedReports(&fileSystem, "out", []reporting.NormalizedReport{
			{SourcePath: "reports/a.xml", Report: report.Report{Name: "a", TestSuites: []report.TestSuite{suite("a")}}},
			{SourcePath: "reports/b.xml", Report: report.Report{Name: "b", TestSuites: []report.TestSuite{suite("b")}}},
		}, reporting.Configuration{})

		Expect(err).NotTo(HaveOccurred())
		Expect(dirs).To(Equal([]string{"out"}))
		Expect(paths).To(Equal([]string{"out/a.xml", "out/b.xml"}))
		Expect(created).To(HaveLen(2))
	})

	It("suffixes reports that came from the same file", func() {
		paths, err := reporting.WriteNormalizedReports(&fileSystem, "out", []reporting.NormalizedReport{
			{SourcePath: "reports/a.xml", Report: report.Report{Name: "first"}},
			{SourcePath: "reports/a.xml", Report: report.Report{Name: "second"}},
			{SourcePath: "other/a.xml", Report: report.Report{Name: "third"}},
		}, reporting.Configuration{})

		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{"out/a-0.xml", "out/a-1.xml", "out/a.xml"}))
	})

	It("avoids overwriting files with the same base name", func() {
		paths, err := reporting.WriteNormalizedReports(&fileSystem, "out", []reporting.NormalizedReport{
			{SourcePath: "one/junit.xml", Report: report.Report{Name: "first"}},
			{SourcePath: "two/junit.xml", Report: report.Report{Name: "second"}},
		}, reporting.Configuration{})

		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{"out/junit.xml", "out/junit_1.xml"}))
	})

	It("writes XML that parses back into the same report", func() {
		original := report.Report{Name: "a", TestSuites: []report.TestSuite{suite("math")}}

		_, err := reporting.WriteNormalizedReports(&fileSystem, "out", []reporting.NormalizedReport{
			{SourcePath: "reports/a.xml", Report: original},
		}, reporting.Configuration{})
		Expect(err).NotTo(HaveOccurred())

		result, err := parsing.Parse(
			parsing.Config{Logger: zap.NewNop().Sugar()},
			strings.NewReader(created["out/a.xml"].Builder.String()),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Reports).To(HaveLen(1))
		Expect(result.Reports[0].Name).To(Equal("a"))
		Expect(result.Reports[0].TestSuites).To(HaveLen(1))
		Expect(result.Reports[0].TestSuites[0].TestCases[0].Name).To(Equal("math works"))
	})

	It("fails when the output directory cannot be created", func() {
		fileSystem.MockMkdirAll = nil

		_, err := reporting.WriteNormalizedReports(&fileSystem, "out", nil, reporting.Configuration{})
		Expect(err).To(HaveOccurred())
	})
})
