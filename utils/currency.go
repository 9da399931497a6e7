package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrency formats an amount with Indian digit grouping.
// Example: 1234567.5 -> "₹12,34,567.50"
func FormatCurrency(symbol string, amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	amount = math.Round(amount*100) / 100

	formatted := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	// last three digits, then groups of two
	var groups []string
	if len(integerPart) > 3 {
		groups = append(groups, integerPart[len(integerPart)-3:])
		rest := integerPart[:len(integerPart)-3]
		for len(rest) > 2 {
			groups = append([]string{rest[len(rest)-2:]}, groups...)
			rest = rest[:len(rest)-2]
		}
		groups = append([]string{rest}, groups...)
	} else {
		groups = []string{integerPart}
	}

	return sign + symbol + strings.Join(groups, ",") + "." + decimalPart
}
