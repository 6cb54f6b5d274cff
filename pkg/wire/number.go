package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a numeric item value. The protocol allows plain
// decimal text and a sexagesimal form whose components are separated
// by ':' or ' ': the first component is the whole part and carries the
// sign, the second is divided by 60 and the third by 3600.
//
// "-10 30.3" and "-10:30:18" both parse to -10.505.
func ParseNumber(s string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, fmt.Errorf("empty number")
	}

	// Preserve empty components so "10::30" fails like any other
	// malformed value instead of silently skipping a field.
	parts := strings.Split(strings.ReplaceAll(text, ":", " "), " ")

	val, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}

	sign := 1.0
	if math.Signbit(val) {
		sign = -1.0
	}

	div := 60.0
	for _, part := range parts[1:] {
		comp, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, err
		}
		val += sign * comp / div
		div *= 60.0
	}
	return val, nil
}

// FormatNumber renders a numeric value in the plain decimal form used
// for all serialized numbers, regardless of how the value was parsed.
// The output is the shortest decimal that parses back to v exactly,
// never exponent notation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
