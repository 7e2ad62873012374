package sizing

import (
	"math"
	"strconv"
	"strings"
)

type NumberKind int

const (
	Absent NumberKind = iota
	Parsed
	Invalid
)

func (k NumberKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Parsed:
		return "parsed"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Number is a form field coerced to a float. Value is meaningful only when
// Kind is Parsed.
type Number struct {
	Kind  NumberKind
	Value float64
}

// ParseNumber requires the whole trimmed input to be a finite number.
func ParseNumber(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Number{Kind: Absent}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{Kind: Invalid}
	}
	return Number{Kind: Parsed, Value: v}
}

// ParseOptionalNumber treats a nil field like an empty one.
func ParseOptionalNumber(raw *string) Number {
	if raw == nil {
		return Number{Kind: Absent}
	}
	return ParseNumber(*raw)
}

func (n Number) Ptr() *float64 {
	if n.Kind != Parsed {
		return nil
	}
	v := n.Value
	return &v
}
