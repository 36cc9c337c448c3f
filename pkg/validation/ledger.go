// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/zakatease/pkg/constants"
)

// ValidateCurrencyCode checks that code is one of the supported currencies,
// ignoring case and surrounding space.
func ValidateCurrencyCode(code string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, supported := range constants.SupportedCurrencies {
		if normalized == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported currency %q, expected one of %s",
		code, strings.Join(constants.SupportedCurrencies, ", "))
}

// ValidateAmount returns a warning when a ledger amount would be clamped to
// zero, and an empty string otherwise.
func ValidateAmount(name string, value float64) string {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		return fmt.Sprintf("%s is not a finite number and counts as 0", name)
	case value < 0:
		return fmt.Sprintf("%s is negative (%v) and counts as 0", name, value)
	default:
		return ""
	}
}

// ValidatePrice returns a warning for a negative or non-finite reference
// price, which is treated as not provided.
func ValidatePrice(name string, value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return fmt.Sprintf("%s (%v) is invalid and treated as not provided", name, value)
	}
	return ""
}
