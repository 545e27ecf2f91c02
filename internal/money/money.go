// Package money handles currency amounts as integer cents.
// All arithmetic in the system happens on Cents; floating point is used
// only transiently while parsing user input, so rounding error can never
// accumulate across operations.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a currency amount in integer cents. Negative values represent
// money owed.
type Cents int64

// ParseDollars converts a user-facing dollar string into cents.
// All characters except digits, '.' and '-' are stripped before parsing,
// so "$1,250.50", "1250.50" and " 1250.50 USD" all parse the same.
func ParseDollars(s string) (Cents, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("no amount found in %q", s)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return Cents(math.Round(value * 100)), nil
}

// Format renders cents as a dollar string, e.g. 1250 -> "$12.50".
// Negative amounts render as "-$12.50".
func Format(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// FormatWithSign renders cents with an explicit sign, e.g. 1250 -> "+$12.50",
// -1250 -> "-$12.50". Zero renders as "$0.00".
func FormatWithSign(c Cents) string {
	if c > 0 {
		return "+" + Format(c)
	}
	return Format(c)
}
