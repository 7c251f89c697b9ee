package testing

import (
	"bufio"
	"encoding/binary"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// Field numbers of the run record. Records are protobuf wire-format messages, each prefixed with its length.
const (
	fieldID            protowire.Number = 1
	fieldName          protowire.Number = 2
	fieldClassname     protowire.Number = 3
	fieldFile          protowire.Number = 4
	fieldParentName    protowire.Number = 5
	fieldLine          protowire.Number = 6
	fieldStatus        protowire.Number = 7
	fieldAttempt       protowire.Number = 8
	fieldStartedAt     protowire.Number = 9
	fieldFinishedAt    protowire.Number = 10
	fieldStatusMessage protowire.Number = 11
	fieldCodeowners    protowire.Number = 12
	fieldIsQuarantined protowire.Number = 13
	fieldHasTimestamp  protowire.Number = 14
)

const maxRecordSize = 16 << 20

// WriteRuns writes the runs as a stream of length-delimited records.
func WriteRuns(w io.Writer, runs []TestCaseRun) error {
	var buf []byte

	for _, run := range runs {
		buf = protowire.AppendBytes(buf[:0], MarshalRun(run))

		if _, err := w.Write(buf); err != nil {
			return errors.NewSystemError("unable to write run record: %s", err)
		}
	}

	return nil
}

// ReadRuns reads a stream written by WriteRuns.
func ReadRuns(r io.Reader) ([]TestCaseRun, error) {
	reader := bufio.NewReader(r)
	runs := make([]TestCaseRun, 0)

	for {
		size, err := binary.ReadUvarint(reader)
		if errors.Is(err, io.EOF) {
			return runs, nil
		}
		if err != nil {
			return nil, errors.NewInputError("unable to read run record length: %s", err)
		}

		if size > maxRecordSize {
			return nil, errors.NewInputError("run record of %d bytes exceeds the limit of %d bytes", size, maxRecordSize)
		}

		record := make([]byte, size)
		if _, err := io.ReadFull(reader, record); err != nil {
			return nil, errors.NewInputError("unable to read run record: %s", err)
		}

		run, err := UnmarshalRun(record)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}
}

// MarshalRun encodes a single run without a length prefix. Zero values are omitted.
func MarshalRun(run TestCaseRun) []byte {
	var b []byte

	appendString := func(num protowire.Number, value string) {
		if value == "" {
			return
		}

		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, value)
	}

	appendVarint := func(num protowire.Number, value uint64) {
		if value == 0 {
			return
		}

		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, value)
	}

	appendTime := func(num protowire.Number, value time.Time) {
		if value.IsZero() {
			return
		}

		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalTimestamp(value))
	}

	appendString(fieldID, run.ID)
	appendString(fieldName, run.Name)
	appendString(fieldClassname, run.Classname)
	appendString(fieldFile, run.File)
	appendString(fieldParentName, run.ParentName)
	appendVarint(fieldLine, uint64(run.Line))
	appendVarint(fieldStatus, uint64(run.Status))
	appendVarint(fieldAttempt, uint64(run.AttemptNumber))
	appendTime(fieldStartedAt, run.StartedAt)
	appendTime(fieldFinishedAt, run.FinishedAt)
	appendString(fieldStatusMessage, run.StatusMessage)
	for _, owner := range run.Codeowners {
		b = protowire.AppendTag(b, fieldCodeowners, protowire.BytesType)
		b = protowire.AppendString(b, owner)
	}
	appendVarint(fieldIsQuarantined, protowire.EncodeBool(run.IsQuarantined))
	appendVarint(fieldHasTimestamp, protowire.EncodeBool(run.HasTimestamp))

	return b
}

// Timestamps are nested messages laid out like google.protobuf.Timestamp: seconds and nanoseconds since the epoch.
const (
	fieldSeconds protowire.Number = 1
	fieldNanos   protowire.Number = 2
)

func marshalTimestamp(value time.Time) []byte {
	var b []byte

	if seconds := value.Unix(); seconds != 0 {
		b = protowire.AppendTag(b, fieldSeconds, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(seconds))
	}

	if nanos := value.Nanosecond(); nanos != 0 {
		b = protowire.AppendTag(b, fieldNanos, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(nanos))
	}

	return b
}

func unmarshalTimestamp(b []byte) (time.Time, error) {
	var seconds, nanos int64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return time.Time{}, malformedRecord(n)
		}
		b = b[n:]

		if typ != protowire.VarintType || (num != fieldSeconds && num != fieldNanos) {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return time.Time{}, malformedRecord(n)
			}
			b = b[n:]
			continue
		}

		value, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return time.Time{}, malformedRecord(n)
		}
		b = b[n:]

		if num == fieldSeconds {
			seconds = int64(value)
		} else {
			nanos = int64(value)
		}
	}

	if nanos < 0 || nanos >= int64(time.Second) {
		return time.Time{}, errors.NewInputError("malformed run record: timestamp has %d nanoseconds", nanos)
	}

	return time.Unix(seconds, nanos).UTC(), nil
}

// UnmarshalRun decodes a single run. Unknown fields are skipped.
func UnmarshalRun(b []byte) (TestCaseRun, error) {
	var run TestCaseRun

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return run, malformedRecord(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && isStringField(num):
			value, n := protowire.ConsumeString(b)
			if n < 0 {
				return run, malformedRecord(n)
			}
			b = b[n:]

			setString(&run, num, value)
		case typ == protowire.VarintType && isVarintField(num):
			value, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return run, malformedRecord(n)
			}
			b = b[n:]

			setVarint(&run, num, value)
		case typ == protowire.BytesType && (num == fieldStartedAt || num == fieldFinishedAt):
			value, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return run, malformedRecord(n)
			}
			b = b[n:]

			timestamp, err := unmarshalTimestamp(value)
			if err != nil {
				return run, err
			}
			if num == fieldStartedAt {
				run.StartedAt = timestamp
			} else {
				run.FinishedAt = timestamp
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return run, malformedRecord(n)
			}
			b = b[n:]
		}
	}

	return run, nil
}

func isStringField(num protowire.Number) bool {
	switch num {
	case fieldID, fieldName, fieldClassname, fieldFile, fieldParentName, fieldStatusMessage, fieldCodeowners:
		return true
	default:
		return false
	}
}

func isVarintField(num protowire.Number) bool {
	switch num {
	case fieldLine, fieldStatus, fieldAttempt, fieldIsQuarantined, fieldHasTimestamp:
		return true
	default:
		return false
	}
}

func setString(run *TestCaseRun, num protowire.Number, value string) {
	switch num {
	case fieldID:
		run.ID = value
	case fieldName:
		run.Name = value
	case fieldClassname:
		run.Classname = value
	case fieldFile:
		run.File = value
	case fieldParentName:
		run.ParentName = value
	case fieldStatusMessage:
		run.StatusMessage = value
	case fieldCodeowners:
		run.Codeowners = append(run.Codeowners, value)
	}
}

func setVarint(run *TestCaseRun, num protowire.Number, value uint64) {
	switch num {
	case fieldLine:
		run.Line = int(value)
	case fieldStatus:
		run.Status = Status(value)
	case fieldAttempt:
		run.AttemptNumber = int(value)
	case fieldIsQuarantined:
		run.IsQuarantined = protowire.DecodeBool(value)
	case fieldHasTimestamp:
		run.HasTimestamp = protowire.DecodeBool(value)
	}
}

func malformedRecord(n int) error {
	return errors.NewInputError("malformed run record: %s", protowire.ParseError(n))
}
