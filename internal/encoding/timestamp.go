package encoding

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimestamp converts "12.5", "01:02.5" or "00:01:02.500" into seconds.
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		// Minutes and seconds components must be below 60 in clock form.
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// FormatSeconds renders seconds the way the encoder accepts them on the
// command line: fixed three decimals, trailing zeros trimmed.
func FormatSeconds(sec float64) string {
	out := strconv.FormatFloat(sec, 'f', 3, 64)
	out = strings.TrimSuffix(strings.TrimRight(out, "0"), ".")
	if out == "" || out == "-" {
		return "0"
	}
	return out
}
