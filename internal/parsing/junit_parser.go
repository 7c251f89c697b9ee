package parsing

import (
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/report"
	"github.com/rwx-research/flakeguard/internal/textsafety"
)

// maxSeconds is the largest `time` attribute that still fits into a time.Duration.
var maxSeconds = math.MaxInt64 / float64(time.Second)

type textKind int

const (
	textSystemOut textKind = iota
	textSystemErr
	textStackTrace
)

// capturedText buffers the content of the system-out, system-err or stackTrace element that is currently open.
type capturedText struct {
	kind textKind
	buf  boundedBuffer
}

// boundedBuffer accumulates character data up to MaxTextLen. Leading whitespace is dropped so that the limit applies
// to the content that survives trimming.
type boundedBuffer struct {
	b strings.Builder
}

func (bb *boundedBuffer) write(s string) {
	if bb.b.Len() == 0 {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
	}

	remaining := textsafety.MaxTextLen + utf8.UTFMax - bb.b.Len()
	if remaining <= 0 {
		return
	}

	if len(s) > remaining {
		s = s[:remaining]
	}

	bb.b.WriteString(s)
}

func (bb *boundedBuffer) value() (string, bool) {
	value := textsafety.TruncateText(bb.b.String())
	return value, value != ""
}

func (bb *boundedBuffer) reset() {
	bb.b.Reset()
}

// JUnitParser is a streaming parser for JUnit-style XML reports. Structural problems are recorded as ParseIssues and
// parsing continues; only failures to read the underlying stream are returned as errors.
// A JUnitParser is not safe for concurrent use, but it can be reused sequentially.
type JUnitParser struct {
	dates   DateParser
	issues  []ParseIssue
	reports []report.Report

	currentReport *report.Report
	reportFromTag bool
	sawReportTag  bool

	currentSuite *report.TestSuite
	suiteDepth   int

	currentCase       *report.TestCase
	caseStatusSet     bool
	statusOpen        bool
	statusDescription boundedBuffer

	currentRerun     *report.TestRerun
	rerunDescription boundedBuffer

	currentText *capturedText
}

// NewJUnitParser returns a ready-to-use parser.
func NewJUnitParser() *JUnitParser {
	return &JUnitParser{}
}

// Parse reads a full document from `r`.
func (p *JUnitParser) Parse(r io.Reader) (*ParseResult, error) {
	*p = JUnitParser{}

	source := &trackingReader{r: r}
	decoder := xml.NewDecoder(source)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charsetReader

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			if source.err != nil {
				return nil, errors.NewSystemError("unable to read test report: %s", source.err)
			}

			p.addIssue(MalformedDocument)
			break
		}

		p.handle(token)
	}

	p.finish()

	switch len(p.reports) {
	case 0:
		p.addIssue(ReportNotFound)
	case 1:
	default:
		p.addIssue(ReportMultipleFound)
	}

	return &ParseResult{Reports: p.reports, Issues: p.issues}, nil
}

func (p *JUnitParser) handle(token xml.Token) {
	switch t := token.(type) {
	case xml.StartElement:
		p.start(t.Name.Local, attributes(t.Attr))
	case xml.EndElement:
		p.end(t.Name.Local)
	case xml.CharData:
		p.text(string(t))
	}
}

func (p *JUnitParser) start(name string, attrs attributes) {
	switch name {
	case report.TagReport:
		p.openReport(attrs)
	case report.TagTestSuite:
		p.openTestSuite(attrs)
	case report.TagTestCase:
		p.openTestCase(attrs)
	case report.TagFailure, report.TagError, report.TagSkipped:
		p.setTestCaseStatus(name, attrs)
	case report.TagRerunFailure, report.TagRerunError, report.TagFlakyFailure, report.TagFlakyError:
		p.openTestRerun(name, attrs)
	case report.TagStackTrace:
		p.currentText = &capturedText{kind: textStackTrace}
	case report.TagSystemOut:
		p.currentText = &capturedText{kind: textSystemOut}
	case report.TagSystemErr:
		p.currentText = &capturedText{kind: textSystemErr}
	case report.TagProperty:
		p.addProperty(attrs)
	}
}

func (p *JUnitParser) end(name string) {
	switch name {
	case report.TagReport:
		p.closeReport()
	case report.TagTestSuite:
		p.closeTestSuite()
	case report.TagTestCase:
		p.closeTestCase()
	case report.TagFailure, report.TagError, report.TagSkipped:
		p.closeTestCaseStatus()
	case report.TagRerunFailure, report.TagRerunError, report.TagFlakyFailure, report.TagFlakyError:
		p.closeTestRerun()
	case report.TagStackTrace, report.TagSystemOut, report.TagSystemErr:
		p.closeText()
	}
}

func (p *JUnitParser) text(value string) {
	switch {
	case p.currentText != nil:
		p.currentText.buf.write(value)
	case p.currentRerun != nil:
		p.rerunDescription.write(value)
	case p.statusOpen:
		p.statusDescription.write(value)
	}
}

func (p *JUnitParser) addIssue(kind IssueKind) {
	p.issues = append(p.issues, newIssue(kind))
}

// finish attaches everything that is still open. At the end of a well-formed document this only applies to a
// default report; after a syntax error it keeps the partial structure.
func (p *JUnitParser) finish() {
	if p.currentRerun != nil && p.currentCase != nil {
		p.closeTestRerun()
	}

	if p.currentCase != nil && p.currentSuite != nil {
		p.closeTestCase()
	}

	if p.currentSuite != nil && p.currentReport != nil {
		p.suiteDepth = 1
		p.closeTestSuite()
	}

	if p.currentReport != nil {
		p.emitReport()
	}
}

func (p *JUnitParser) openReport(attrs attributes) {
	if p.currentReport != nil {
		p.emitReport()
	}

	name, _ := attrs.text("name")
	if name == "" {
		p.addIssue(ReportName)
	}

	r := report.Report{
		Name:      name,
		Timestamp: p.timestamp(attrs),
		Time:      attrs.seconds("time"),
		Tests:     attrs.count("tests"),
		Failures:  attrs.count("failures"),
		Errors:    attrs.count("errors"),
	}

	if raw, ok := attrs.field("uuid"); ok {
		if id, err := uuid.Parse(raw); err == nil {
			r.UUID = &id
		}
	}

	p.currentReport = &r
	p.reportFromTag = true
	p.sawReportTag = true
}

func (p *JUnitParser) closeReport() {
	if p.currentReport == nil || !p.reportFromTag {
		p.addIssue(ReportStartTagNotFound)
		return
	}

	p.emitReport()
}

func (p *JUnitParser) emitReport() {
	p.reports = append(p.reports, *p.currentReport)
	p.currentReport = nil
	p.reportFromTag = false
}

func (p *JUnitParser) openTestSuite(attrs attributes) {
	// Only the outermost suite of a nested group is kept. Cases of inner suites belong to it.
	if p.suiteDepth > 0 {
		p.suiteDepth++
		return
	}
	p.suiteDepth = 1

	if p.currentReport == nil && !p.sawReportTag {
		p.currentReport = &report.Report{}
	}

	name, _ := attrs.text("name")
	if name == "" {
		p.addIssue(TestSuiteName)
	}

	p.currentSuite = &report.TestSuite{
		Name:      name,
		Tests:     attrs.count("tests"),
		Failures:  attrs.count("failures"),
		Errors:    attrs.count("errors"),
		Disabled:  attrs.count("disabled"),
		Timestamp: p.timestamp(attrs),
		Time:      attrs.seconds("time"),
		Extra:     attrs.extra(),
	}
}

func (p *JUnitParser) closeTestSuite() {
	switch {
	case p.suiteDepth > 1:
		p.suiteDepth--
		return
	case p.suiteDepth == 0 || p.currentSuite == nil:
		p.addIssue(TestSuiteStartTagNotFound)
		return
	}

	p.suiteDepth = 0
	suite := p.currentSuite
	p.currentSuite = nil

	if p.currentReport == nil {
		p.addIssue(TestSuiteReportNotFound)
		return
	}

	p.currentReport.TestSuites = append(p.currentReport.TestSuites, *suite)
}

func (p *JUnitParser) openTestCase(attrs attributes) {
	if p.currentCase != nil {
		p.closeTestCase()
	}

	name, _ := attrs.text("name")
	if name == "" {
		p.addIssue(TestCaseName)
	}

	testCase := report.TestCase{
		Name:      name,
		Timestamp: p.timestamp(attrs),
		Time:      attrs.seconds("time"),
		Status:    report.Success{},
		Extra:     attrs.extra(),
	}

	if classname, ok := attrs.text("classname"); ok {
		testCase.Classname = &classname
	}

	if assertions, ok := attrs.integer("assertions"); ok {
		testCase.Assertions = &assertions
	}

	p.currentCase = &testCase
	p.caseStatusSet = false
	p.statusOpen = false
}

func (p *JUnitParser) closeTestCase() {
	if p.currentCase == nil {
		p.addIssue(TestCaseStartTagNotFound)
		return
	}

	testCase := p.currentCase
	p.currentCase = nil
	p.statusOpen = false

	if p.currentSuite == nil {
		p.addIssue(TestCaseTestSuiteNotFound)
		return
	}

	p.currentSuite.TestCases = append(p.currentSuite.TestCases, *testCase)
}

func (p *JUnitParser) setTestCaseStatus(tag string, attrs attributes) {
	if p.currentCase == nil {
		p.addIssue(TestCaseStatusTestCaseNotFound)
		return
	}

	// Malformed reports sometimes carry several status elements; the first one wins.
	if p.caseStatusSet {
		return
	}

	message := attrs.optionalText("message")
	kind := attrs.optionalField("type")

	switch tag {
	case report.TagSkipped:
		p.currentCase.Status = report.Skipped{Message: message, Type: kind}
	default:
		nonSuccess := report.NonSuccess{Kind: report.KindFailure, Message: message, Type: kind}
		if tag == report.TagError {
			nonSuccess.Kind = report.KindError
		}
		// Attempts recorded before the final status are kept as its reruns.
		nonSuccess.Reruns = report.Reruns(p.currentCase.Status)
		p.currentCase.Status = nonSuccess
	}

	p.caseStatusSet = true
	p.statusOpen = true
	p.statusDescription.reset()
}

func (p *JUnitParser) closeTestCaseStatus() {
	if !p.statusOpen || p.currentCase == nil {
		return
	}
	p.statusOpen = false

	description, ok := p.statusDescription.value()
	if !ok {
		return
	}

	switch status := p.currentCase.Status.(type) {
	case report.NonSuccess:
		status.Description = &description
		p.currentCase.Status = status
	case report.Skipped:
		status.Description = &description
		p.currentCase.Status = status
	case report.Success:
	}
}

func (p *JUnitParser) openTestRerun(tag string, attrs attributes) {
	if p.currentRerun != nil {
		p.closeTestRerun()
	}

	rerun := report.TestRerun{
		Kind:      report.KindFailure,
		Timestamp: p.timestamp(attrs),
		Time:      attrs.seconds("time"),
		Message:   attrs.optionalText("message"),
		Type:      attrs.optionalField("type"),
	}

	if tag == report.TagRerunError || tag == report.TagFlakyError {
		rerun.Kind = report.KindError
	}

	p.currentRerun = &rerun
	p.rerunDescription.reset()
}

func (p *JUnitParser) closeTestRerun() {
	if p.currentRerun == nil {
		p.addIssue(TestRerunStartTagNotFound)
		return
	}

	rerun := p.currentRerun
	p.currentRerun = nil

	if description, ok := p.rerunDescription.value(); ok {
		rerun.Description = &description
	}

	if p.currentCase == nil {
		p.addIssue(TestRerunTestCaseNotFound)
		return
	}

	p.currentCase.Status = report.WithRerun(p.currentCase.Status, *rerun)
}

func (p *JUnitParser) closeText() {
	text := p.currentText
	if text == nil {
		return
	}
	p.currentText = nil

	value, ok := text.buf.value()
	if !ok {
		switch text.kind {
		case textSystemOut:
			p.addIssue(SystemOutEmpty)
		case textSystemErr:
			p.addIssue(SystemErrEmpty)
		case textStackTrace:
			p.addIssue(StackTraceEmpty)
		}
		return
	}

	switch {
	case p.currentRerun != nil:
		switch text.kind {
		case textSystemOut:
			p.currentRerun.SystemOut = &value
		case textSystemErr:
			p.currentRerun.SystemErr = &value
		case textStackTrace:
			p.currentRerun.StackTrace = &value
		}
	case p.currentCase != nil:
		switch text.kind {
		case textSystemOut:
			p.currentCase.SystemOut = &value
		case textSystemErr:
			p.currentCase.SystemErr = &value
		case textStackTrace:
		}
	case p.currentSuite != nil:
		switch text.kind {
		case textSystemOut:
			p.currentSuite.SystemOut = &value
		case textSystemErr:
			p.currentSuite.SystemErr = &value
		case textStackTrace:
		}
	}
}

func (p *JUnitParser) addProperty(attrs attributes) {
	name, ok := attrs.text("name")
	if !ok {
		return
	}

	value, _ := attrs.text("value")
	property := report.Property{Name: name, Value: value}

	switch {
	case p.currentCase != nil:
		p.currentCase.Properties = append(p.currentCase.Properties, property)
	case p.currentSuite != nil:
		p.currentSuite.Properties = append(p.currentSuite.Properties, property)
	}
}

func (p *JUnitParser) timestamp(attrs attributes) *time.Time {
	raw, ok := attrs.field("timestamp")
	if !ok {
		return nil
	}

	t, ok := p.dates.Parse(raw)
	if !ok {
		return nil
	}

	return &t
}

type attributes []xml.Attr

func (a attributes) lookup(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}

	return "", false
}

// text returns a free-text attribute, truncated to MaxTextLen. Empty values are treated as absent.
func (a attributes) text(name string) (string, bool) {
	raw, ok := a.lookup(name)
	if !ok {
		return "", false
	}

	value := textsafety.TruncateText(raw)
	return value, value != ""
}

// field returns a short structured attribute, truncated to MaxFieldLen. Empty values are treated as absent.
func (a attributes) field(name string) (string, bool) {
	raw, ok := a.lookup(name)
	if !ok {
		return "", false
	}

	value := textsafety.TruncateField(raw)
	return value, value != ""
}

func (a attributes) optionalText(name string) *string {
	if value, ok := a.text(name); ok {
		return &value
	}

	return nil
}

func (a attributes) optionalField(name string) *string {
	if value, ok := a.field(name); ok {
		return &value
	}

	return nil
}

func (a attributes) integer(name string) (int, bool) {
	raw, ok := a.field(name)
	if !ok {
		return 0, false
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}

	return value, true
}

func (a attributes) count(name string) int {
	value, _ := a.integer(name)
	return value
}

// seconds parses a duration attribute. Only finite, non-negative values are legal.
func (a attributes) seconds(name string) *time.Duration {
	raw, ok := a.field(name)
	if !ok {
		return nil
	}

	// Some producers use a thousands separator.
	secs, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 || secs > maxSeconds {
		return nil
	}

	d := time.Duration(math.Round(secs * float64(time.Second)))
	return &d
}

func (a attributes) extra() report.Extra {
	extra := report.Extra{}

	for _, key := range []string{report.KeyFile, report.KeyFilepath} {
		if value, ok := a.text(key); ok {
			extra[key] = value
		}
	}

	if id, ok := a.field(report.KeyID); ok {
		extra[report.KeyID] = id
	}

	if line, ok := a.integer(report.KeyLine); ok {
		extra[report.KeyLine] = strconv.Itoa(line)
	}

	return extra
}

// trackingReader remembers read errors so that they can be told apart from XML syntax errors.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if err != nil && err != io.EOF {
		t.err = err
	}

	return n, err
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	encoding, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, errors.NewInputError("unsupported report encoding %q: %s", label, err)
	}

	if encoding == nil {
		return input, nil
	}

	return encoding.NewDecoder().Reader(input), nil
}
