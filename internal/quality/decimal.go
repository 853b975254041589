package quality

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyValue   = errors.New("valor vazio")
	ErrInvalidValue = errors.New("valor inválido")
	ErrOutOfRange   = errors.New("valor fora do intervalo")
)

// Stored values are numeric(14,4): at most ten integer digits after rounding
// to four places.
const (
	StoredScale      = 4
	maxIntegerDigits = 10
)

var storedLimit = decimal.New(1, maxIntegerDigits)

// ParseLocaleDecimal converts pt-BR text ("1.234,56") to a canonical decimal.
// Dots are group separators and are dropped; a single comma is the decimal mark.
func ParseLocaleDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyValue
	}
	if strings.Count(s, ",") > 1 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
		case (r == '-' || r == '+') && i == 0:
		default:
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, s)
		}
	}

	canonical := strings.ReplaceAll(s, ".", "")
	canonical = strings.Replace(canonical, ",", ".", 1)
	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	if d.Round(StoredScale).Abs().GreaterThanOrEqual(storedLimit) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return d, nil
}

// FormatEntry renders d with exactly two fractional digits and a decimal comma,
// without thousands grouping. Used for values typed back into the entry pad.
func FormatEntry(d decimal.Decimal) string {
	sign, intPart, frac := splitFixed(d)
	return sign + intPart + "," + frac
}

// FormatReport renders d like FormatEntry but groups thousands with dots.
func FormatReport(d decimal.Decimal) string {
	sign, intPart, frac := splitFixed(d)
	return sign + groupThousands(intPart) + "," + frac
}

func splitFixed(d decimal.Decimal) (sign, intPart, frac string) {
	s := d.StringFixed(2)
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ = strings.Cut(s, ".")
	if sign != "" && strings.Trim(intPart+frac, "0") == "" {
		sign = ""
	}
	return sign, intPart, frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
