package analytics

import (
	"fmt"
	"strings"
)

// money renders a currency amount with thousands separators and no decimals,
// e.g. 1234567.8 -> "$1,234,568".
func money(v float64) string {
	return "$" + thousands(v)
}

// thousands renders a number with thousands separators and no decimals.
func thousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)

	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// oneDecimal renders a rate with a single decimal place.
func oneDecimal(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// wholeNumber renders a count with no decimals and no separators.
func wholeNumber(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
