// Package sizing turns raw garment measurements into canonical ranges and
// display tokens.
package sizing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Range is the span of body measurements a garment fits. Either both bounds
// are nil, both are set with Min <= Max, or only Min is set.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

func (r Range) IsEmpty() bool {
	return r.Min == nil && r.Max == nil
}

var (
	rangePattern        = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(?:-\s*(\d+(?:\.\d+)?))?\s*$`)
	leadingFloatPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ParseRange reads "12", "12.5", "12-18" or "18 - 12". Input that matches
// neither form falls back to its leading number ("14 in" -> 14); anything
// else yields an empty Range.
func ParseRange(raw string) Range {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Range{}
	}

	m := rangePattern.FindStringSubmatch(raw)
	if m == nil {
		if n, ok := LeadingFloat(raw); ok {
			return Range{Min: &n}
		}
		return Range{}
	}

	a, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Range{}
	}
	if m[2] == "" {
		return Range{Min: &a}
	}

	b, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Range{}
	}
	return sortedRange(a, b)
}

// RangeFromBounds builds a Range from separately submitted bounds. A lone
// max is stored as the min.
func RangeFromBounds(min, max Number) Range {
	switch {
	case min.Kind == Parsed && max.Kind == Parsed:
		return sortedRange(min.Value, max.Value)
	case min.Kind == Parsed:
		v := min.Value
		return Range{Min: &v}
	case max.Kind == Parsed:
		v := max.Value
		return Range{Min: &v}
	default:
		return Range{}
	}
}

func sortedRange(a, b float64) Range {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return Range{Min: &lo, Max: &hi}
}

// LeadingFloat parses the longest numeric prefix of s, the way a lenient
// form parser reads "32 in" as 32.
func LeadingFloat(s string) (float64, bool) {
	token := leadingFloatPattern.FindString(strings.TrimSpace(s))
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatNumber renders the shortest decimal that round-trips, without an
// exponent or a trailing ".0".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
