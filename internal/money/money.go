// Package money holds the decimal helpers shared by services and replies.
// Amounts are BRL with two decimal places.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount as "R$ 1234.56".
func Format(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

// Sum adds the given amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Round returns d rounded half-up to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// dotThousands matches amounts grouped with dots and no decimal part, such as
// "1.500" or "1.500.000".
var dotThousands = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// Parse reads an amount written the way people type it in chat:
// "50", "50.5", "50,50", "R$ 1.234,56", "R$ 1.500" or "1,234.56".
// A dot followed by exactly three digits is a thousands separator.
func Parse(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("money: empty amount")
	}

	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// 1.234,56
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// 1,234.56
		raw = strings.ReplaceAll(raw, ",", "")
	case lastComma >= 0:
		raw = strings.Replace(raw, ",", ".", 1)
	case dotThousands.MatchString(raw):
		raw = strings.ReplaceAll(raw, ".", "")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Round(d), nil
}
