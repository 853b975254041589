package quality

import (
	"fmt"
	"strings"
)

// NextLabel suggests a label for a new dimension: the first unused letter
// A..Z, then P<n+1> once the alphabet is exhausted.
func NextLabel(existing []string) string {
	used := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		used[strings.ToUpper(strings.TrimSpace(l))] = struct{}{}
	}
	for c := 'A'; c <= 'Z'; c++ {
		if _, ok := used[string(c)]; !ok {
			return string(c)
		}
	}
	return fmt.Sprintf("P%d", len(existing)+1)
}

// ClampPosition keeps a pin coordinate inside the drawing.
func ClampPosition(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SpecString renders "10,00mm +0,05 / -0,05". Without a nominal it is empty;
// missing tolerances are left out.
func SpecString(s Spec) string {
	if !s.Nominal.Valid {
		return ""
	}
	out := FormatReport(s.Nominal.Decimal) + s.UnitOrDefault()
	if s.TolPlus.Valid {
		out += " +" + FormatReport(s.TolPlus.Decimal)
	}
	if s.TolMinus.Valid {
		out += " / -" + FormatReport(s.TolMinus.Decimal)
	}
	return out
}
