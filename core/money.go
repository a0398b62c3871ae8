package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts are sent to the frontend as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatQuetzales renders an amount as "Q1,234.50".
func FormatQuetzales(d decimal.Decimal) string {
	s := RoundMoney(d).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "Q" + b.String() + frac
}
