// Package format renders monetary amounts for documents and terminal output.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
}

// Currency returns a whole-unit currency string with thousands separators,
// e.g. "PKR 20,000", "$1,235" or "-€40". Codes that are not ISO 4217 (such
// as "USDT") are printed verbatim in front of the number.
func Currency(amount float64, code string) string {
	code = CurrencyCode(code)
	number := Number(math.Abs(amount))

	sign := ""
	if math.Round(amount) < 0 {
		sign = "-"
	}
	if symbol, ok := currencySymbols[code]; ok {
		return sign + symbol + number
	}
	if code == "" {
		return sign + number
	}
	return sign + code + " " + number
}

// CurrencyCode canonicalizes a currency code. ISO 4217 codes are recognized
// case-insensitively; anything else is upper-cased and passed through.
func CurrencyCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if unit, err := currency.ParseISO(trimmed); err == nil {
		return unit.String()
	}
	return strings.ToUpper(trimmed)
}

// Number returns an amount rounded to whole units with thousands separators
// (e.g., "-1,235").
func Number(amount float64) string {
	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	return sign + groupThousands(fmt.Sprintf("%.0f", math.Abs(rounded)))
}

// Decimal returns an amount with two decimals and thousands separators
// (e.g., "1,234.56").
func Decimal(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	formatted := fmt.Sprintf("%.2f", math.Abs(amount))
	parts := strings.SplitN(formatted, ".", 2)
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}
	if parts[0] == "0" && decPart == "00" {
		sign = ""
	}
	return sign + groupThousands(parts[0]) + "." + decPart
}

func groupThousands(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}

	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
