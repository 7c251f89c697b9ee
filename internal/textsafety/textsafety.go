// Package textsafety bounds every piece of text captured from a test report. All values are trimmed and truncated on
// a UTF-8 boundary so that adversarial input can neither grow memory without limit nor produce invalid strings.
package textsafety

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLen is the limit for free text such as descriptions, stack traces and captured output.
	MaxTextLen = 8000
	// MaxFieldLen is the limit for short structured fields such as names, class names and file paths.
	MaxFieldLen = 1000
)

// Truncate trims surrounding whitespace and cuts the remainder to at most `max` bytes without splitting a rune.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}

	if max <= 0 {
		return ""
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

// TruncateText truncates free text to MaxTextLen.
func TruncateText(s string) string {
	return Truncate(s, MaxTextLen)
}

// TruncateField truncates a short structured field to MaxFieldLen.
func TruncateField(s string) string {
	return Truncate(s, MaxFieldLen)
}

// FieldLenKind classifies the length of a field.
type FieldLenKind int

const (
	FieldLenValid FieldLenKind = iota
	FieldLenTooShort
	FieldLenTooLong
)

// FieldLen is the result of CheckFieldLen. Value holds the trimmed (and, when too long, truncated) field.
type FieldLen struct {
	Kind  FieldLenKind
	Value string
}

// CheckFieldLen classifies a field as empty, within bounds or too long.
func CheckFieldLen(s string, max int) FieldLen {
	trimmed := strings.TrimSpace(s)

	switch {
	case trimmed == "":
		return FieldLen{Kind: FieldLenTooShort}
	case len(trimmed) > max:
		return FieldLen{Kind: FieldLenTooLong, Value: Truncate(trimmed, max)}
	default:
		return FieldLen{Kind: FieldLenValid, Value: trimmed}
	}
}
