package sizing

import "fmt"

// FormatSizeDisplay collapses every value recorded for one dimension into
// what the size chart shows. Several numeric values become a single "min-max"
// token, or a single value when they are all equal. When fewer than two
// values are numeric the non-empty originals are returned as they are.
func FormatSizeDisplay(values []string) []string {
	valid := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			valid = append(valid, v)
		}
	}

	if len(valid) == 0 {
		return []string{}
	}
	if len(valid) == 1 {
		return valid
	}

	numeric := make([]float64, 0, len(valid))
	for _, v := range valid {
		if n, ok := LeadingFloat(v); ok {
			numeric = append(numeric, n)
		}
	}
	if len(numeric) < 2 {
		return valid
	}

	lo, hi := numeric[0], numeric[0]
	for _, n := range numeric[1:] {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}

	if lo == hi {
		return []string{FormatNumber(lo)}
	}
	return []string{fmt.Sprintf("%s-%s", FormatNumber(lo), FormatNumber(hi))}
}
