package report

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// Element names of the XML dialect. The parser in `internal/parsing` reads the same names.
const (
	TagReport        = "testsuites"
	TagTestSuite     = "testsuite"
	TagTestCase      = "testcase"
	TagFailure       = "failure"
	TagError         = "error"
	TagSkipped       = "skipped"
	TagRerunFailure  = "rerunFailure"
	TagRerunError    = "rerunError"
	TagFlakyFailure  = "flakyFailure"
	TagFlakyError    = "flakyError"
	TagStackTrace    = "stackTrace"
	TagSystemOut     = "system-out"
	TagSystemErr     = "system-err"
	TagProperties    = "properties"
	TagProperty      = "property"
	timestampLayout  = time.RFC3339Nano
	secondsPrecision = 3
)

// Marshal serializes the report into the XML dialect it is parsed from.
func Marshal(r Report) ([]byte, error) {
	var buf bytes.Buffer

	if err := Write(&buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Write serializes the report into `w`. Serializing a parsed report and parsing it again yields the same output.
func Write(w io.Writer, r Report) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.NewSystemError("unable to write XML header: %s", err)
	}

	s := serializer{enc: xml.NewEncoder(w)}
	s.enc.Indent("", "  ")

	s.report(r)

	if s.err == nil {
		s.err = s.enc.Flush()
	}

	if s.err != nil {
		return errors.NewSystemError("unable to serialize report %q: %s", r.Name, s.err)
	}

	_, err := io.WriteString(w, "\n")
	return errors.WithStack(err)
}

// serializer records the first encoding error and turns every later call into a no-op.
type serializer struct {
	enc *xml.Encoder
	err error
}

func (s *serializer) token(t xml.Token) {
	if s.err != nil {
		return
	}

	s.err = s.enc.EncodeToken(t)
}

func (s *serializer) start(name string, attrs []xml.Attr) {
	s.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (s *serializer) end(name string) {
	s.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (s *serializer) textElement(name string, value *string, attrs []xml.Attr) {
	s.start(name, attrs)
	if value != nil {
		s.token(xml.CharData(*value))
	}
	s.end(name)
}

func (s *serializer) report(r Report) {
	attrs := []xml.Attr{
		attr("name", r.Name),
		attr("tests", strconv.Itoa(r.Tests)),
		attr("failures", strconv.Itoa(r.Failures)),
		attr("errors", strconv.Itoa(r.Errors)),
	}
	attrs = appendTiming(attrs, r.Timestamp, r.Time)
	if r.UUID != nil {
		attrs = append(attrs, attr("uuid", r.UUID.String()))
	}

	s.start(TagReport, attrs)
	for _, suite := range r.TestSuites {
		s.testSuite(suite)
	}
	s.end(TagReport)
}

func (s *serializer) testSuite(suite TestSuite) {
	attrs := []xml.Attr{
		attr("name", suite.Name),
		attr("tests", strconv.Itoa(suite.Tests)),
		attr("failures", strconv.Itoa(suite.Failures)),
		attr("errors", strconv.Itoa(suite.Errors)),
	}
	if suite.Disabled > 0 {
		attrs = append(attrs, attr("disabled", strconv.Itoa(suite.Disabled)))
	}
	attrs = appendTiming(attrs, suite.Timestamp, suite.Time)
	attrs = appendExtra(attrs, suite.Extra)

	s.start(TagTestSuite, attrs)
	s.properties(suite.Properties)
	for _, testCase := range suite.TestCases {
		s.testCase(testCase)
	}
	s.capturedOutput(suite.SystemOut, suite.SystemErr)
	s.end(TagTestSuite)
}

func (s *serializer) testCase(tc TestCase) {
	attrs := []xml.Attr{attr("name", tc.Name)}
	if tc.Classname != nil {
		attrs = append(attrs, attr("classname", *tc.Classname))
	}
	if tc.Assertions != nil {
		attrs = append(attrs, attr("assertions", strconv.Itoa(*tc.Assertions)))
	}
	attrs = appendTiming(attrs, tc.Timestamp, tc.Time)
	attrs = appendExtra(attrs, tc.Extra)

	s.start(TagTestCase, attrs)
	s.properties(tc.Properties)

	switch status := tc.StatusOrSuccess().(type) {
	case Success:
		s.reruns(status.FlakyRuns, TagFlakyFailure, TagFlakyError)
	case NonSuccess:
		tag := TagFailure
		if status.Kind == KindError {
			tag = TagError
		}
		s.textElement(tag, status.Description, messageAttrs(status.Message, status.Type))
		s.reruns(status.Reruns, TagRerunFailure, TagRerunError)
	case Skipped:
		s.textElement(TagSkipped, status.Description, messageAttrs(status.Message, status.Type))
	}

	s.capturedOutput(tc.SystemOut, tc.SystemErr)
	s.end(TagTestCase)
}

func (s *serializer) reruns(reruns []TestRerun, failureTag, errorTag string) {
	for _, rerun := range reruns {
		tag := failureTag
		if rerun.Kind == KindError {
			tag = errorTag
		}

		attrs := appendTiming(messageAttrs(rerun.Message, rerun.Type), rerun.Timestamp, rerun.Time)

		s.start(tag, attrs)
		if rerun.Description != nil {
			s.token(xml.CharData(*rerun.Description))
		}
		if rerun.StackTrace != nil {
			s.textElement(TagStackTrace, rerun.StackTrace, nil)
		}
		s.capturedOutput(rerun.SystemOut, rerun.SystemErr)
		s.end(tag)
	}
}

func (s *serializer) capturedOutput(stdout, stderr *string) {
	if stdout != nil {
		s.textElement(TagSystemOut, stdout, nil)
	}

	if stderr != nil {
		s.textElement(TagSystemErr, stderr, nil)
	}
}

func (s *serializer) properties(properties []Property) {
	if len(properties) == 0 {
		return
	}

	s.start(TagProperties, nil)
	for _, property := range properties {
		s.start(TagProperty, []xml.Attr{attr("name", property.Name), attr("value", property.Value)})
		s.end(TagProperty)
	}
	s.end(TagProperties)
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func messageAttrs(message, kind *string) []xml.Attr {
	attrs := make([]xml.Attr, 0, 2)

	if message != nil {
		attrs = append(attrs, attr("message", *message))
	}

	if kind != nil {
		attrs = append(attrs, attr("type", *kind))
	}

	return attrs
}

func appendTiming(attrs []xml.Attr, timestamp *time.Time, duration *time.Duration) []xml.Attr {
	if timestamp != nil {
		attrs = append(attrs, attr("timestamp", timestamp.Format(timestampLayout)))
	}

	if duration != nil {
		attrs = append(attrs, attr("time", FormatSeconds(*duration)))
	}

	return attrs
}

func appendExtra(attrs []xml.Attr, extra Extra) []xml.Attr {
	for _, key := range ExtraKeys {
		if value, ok := extra.get(key); ok {
			attrs = append(attrs, attr(key, value))
		}
	}

	return attrs
}

// FormatSeconds renders a duration the way the `time` attribute expects it.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', secondsPrecision, 64)
}
