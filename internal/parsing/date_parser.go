package parsing

import (
	"strings"
	"time"
)

// Layouts are tried in order. Fractional seconds are accepted by `time.Parse` even when a layout omits them.
// Layouts after the offset-aware ones have no zone and are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DateParser parses timestamps in any of the supported layouts. Test reports are usually consistent, so the layout
// that succeeded last is tried first. A DateParser must not be shared between goroutines.
type DateParser struct {
	last int
}

// Parse returns the parsed timestamp, or false if no layout matches.
func (p *DateParser) Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(timestampLayouts[p.last], value); err == nil {
		return t, true
	}

	for i, layout := range timestampLayouts {
		if i == p.last {
			continue
		}

		if t, err := time.Parse(layout, value); err == nil {
			p.last = i
			return t, true
		}
	}

	return time.Time{}, false
}
