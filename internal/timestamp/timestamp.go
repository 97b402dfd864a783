// Package timestamp converts between clock strings ("H:MM:SS" or "M:SS",
// fractional seconds allowed) and floating-point seconds offsets. It is the
// single definition of a valid segment timestamp; every consumer parses
// through here rather than splitting strings at call sites.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a timestamp string does not match the
// two- or three-field clock grammar.
var ErrMalformed = errors.New("malformed timestamp")

// Parse converts "H:MM:SS[.fff]" or "M:SS[.fff]" to seconds. Any other
// field count, a non-numeric component, or a negative component fails
// with ErrMalformed.
func Parse(text string) (float64, error) {
	fields := strings.Split(strings.TrimSpace(text), ":")
	switch len(fields) {
	case 2:
		minutes, err := wholeField(fields[0])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		seconds, err := secondsField(fields[1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		return float64(minutes)*60 + seconds, nil
	case 3:
		hours, err := wholeField(fields[0])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		minutes, err := wholeField(fields[1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		seconds, err := secondsField(fields[2])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
	default:
		return 0, fmt.Errorf("%w: %q has %d fields", ErrMalformed, text, len(fields))
	}
}

// Format renders seconds as "H:MM:SS" with millisecond precision,
// trimming trailing fractional zeros. Parse(Format(x)) stays within
// 1e-3 of x for all x >= 0.
func Format(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))
	hours := totalMs / 3600000
	minutes := (totalMs % 3600000) / 60000
	whole := (totalMs % 60000) / 1000
	frac := totalMs % 1000
	if frac == 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, whole)
	}
	s := fmt.Sprintf("%d:%02d:%02d.%03d", hours, minutes, whole, frac)
	return strings.TrimRight(s, "0")
}

func wholeField(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrMalformed
	}
	return n, nil
}

func secondsField(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrMalformed
	}
	return v, nil
}
