package parsing_test

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/parsing"
	"github.com/rwx-research/flakeguard/internal/report"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var errReadFailed = errors.New("read failed")

type stubParser struct {
	result *parsing.ParseResult
	err    error
	calls  int
}

func (s *stubParser) Parse(r io.Reader) (*parsing.ParseResult, error) {
	s.calls++
	_, _ = io.ReadAll(r)
	return s.result, s.err
}

var _ = Describe("Parse", func() {
	var cfg parsing.Config

	BeforeEach(func() {
		cfg = parsing.Config{Logger: zap.NewNop().Sugar()}
	})

	It("requires a logger", func() {
		_, err := parsing.Parse(parsing.Config{}, strings.NewReader(""))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("No logger was provided"))
	})

	It("uses the JUnit parser by default", func() {
		result, err := parsing.Parse(cfg, strings.NewReader(`<testsuite name="s"><testcase name="t"/></testsuite>`))

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Reports).To(HaveLen(1))
	})

	It("returns the first result that contains reports", func() {
		empty := &stubParser{result: &parsing.ParseResult{Issues: []parsing.ParseIssue{{
			Level: parsing.IssueSubOptimal,
			Kind:  parsing.ReportNotFound,
		}}}}
		found := &stubParser{result: &parsing.ParseResult{Reports: []report.Report{{Name: "found"}}}}
		never := &stubParser{}
		cfg.Parsers = []parsing.Parser{empty, found, never}

		result, err := parsing.Parse(cfg, bytes.NewReader([]byte("<testsuites/>")))

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Reports[0].Name).To(Equal("found"))
		Expect(empty.calls).To(Equal(1))
		Expect(never.calls).To(Equal(0))
	})

	It("falls back to the first result when no parser finds a report", func() {
		first := &stubParser{result: &parsing.ParseResult{Issues: []parsing.ParseIssue{{Kind: parsing.MalformedDocument}}}}
		second := &stubParser{result: &parsing.ParseResult{}}
		cfg.Parsers = []parsing.Parser{first, second}

		result, err := parsing.Parse(cfg, bytes.NewReader(nil))

		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(BeIdenticalTo(first.result))
		Expect(second.calls).To(Equal(1))
	})

	It("stops after the first parser when the input cannot be rewound", func() {
		first := &stubParser{result: &parsing.ParseResult{}}
		second := &stubParser{result: &parsing.ParseResult{}}
		cfg.Parsers = []parsing.Parser{first, second}

		_, err := parsing.Parse(cfg, io.LimitReader(strings.NewReader("x"), 1))

		Expect(err).ToNot(HaveOccurred())
		Expect(second.calls).To(Equal(0))
	})

	It("propagates parser errors", func() {
		cfg.Parsers = []parsing.Parser{&stubParser{err: errReadFailed}}

		_, err := parsing.Parse(cfg, strings.NewReader(""))

		Expect(errors.Is(err, errReadFailed)).To(BeTrue())
	})

	It("rejects parsers that return neither a result nor an error", func() {
		cfg.Parsers = []parsing.Parser{&stubParser{}}

		_, err := parsing.Parse(cfg, strings.NewReader(""))

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("did not return a parse result"))
	})
})
