// Package dateutil expands date placeholders in document titles and headers.
package dateutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength bounds a single format string.
const MaxDateFormatLength = 50

// DefaultDateFormat is used by a bare {date} placeholder.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens maps user-friendly tokens to Go layout parts, longest first.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets are named shortcuts usable as {date:iso} and so on.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// placeholderPattern matches {date} and {date:FORMAT}.
var placeholderPattern = regexp.MustCompile(`\{date(?::([^{}]*))?\}`)

// ParseDateFormat converts tokens (YYYY, YY, MMMM, MMM, MM, M, DD, D) into a
// Go layout. Text inside [brackets] is kept literally.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var out strings.Builder
	out.Grow(len(format) + 10)

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			out.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}
		i += writeToken(&out, format[i:])
	}
	return out.String(), nil
}

// writeToken writes the Go layout for the token at the start of s, or the
// first byte as a literal, and returns how many bytes it consumed.
func writeToken(out *strings.Builder, s string) int {
	for _, t := range dateTokens {
		if strings.HasPrefix(s, t.token) {
			out.WriteString(t.goFmt)
			return len(t.token)
		}
	}
	out.WriteByte(s[0])
	return 1
}

// FormatDate formats t with a user format or preset name.
// An empty format uses DefaultDateFormat.
func FormatDate(format string, t time.Time) (string, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	layout, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// ExpandPlaceholders replaces every {date} or {date:FORMAT} in s with t.
// Text without placeholders is returned unchanged.
func ExpandPlaceholders(s string, t time.Time) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		format := placeholderPattern.FindStringSubmatch(m)[1]
		formatted, err := FormatDate(format, t)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return formatted
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
