package validation

import (
	"math"
	"strings"
	"testing"
)

func TestValidateCurrencyCode(t *testing.T) {
	tests := []struct {
		code      string
		expectErr bool
	}{
		{"PKR", false},
		{"usd", false},
		{" Gbp ", false},
		{"USDT", false},
		{"AED", false},
		{"JPY", true},
		{"", true},
		{"US", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateCurrencyCode(tt.code)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateCurrencyCode(%q) error = %v, expectErr %v", tt.code, err, tt.expectErr)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		contains string
	}{
		{"Zero", 0, ""},
		{"Positive", 1500.5, ""},
		{"Negative", -10, "negative"},
		{"NaN", math.NaN(), "not a finite number"},
		{"Infinity", math.Inf(1), "not a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateAmount("assets.cashInHand", tt.value)
			if tt.contains == "" {
				if warning != "" {
					t.Errorf("unexpected warning %q", warning)
				}
				return
			}
			if !strings.Contains(warning, tt.contains) || !strings.Contains(warning, "assets.cashInHand") {
				t.Errorf("warning %q should mention %q and the field", warning, tt.contains)
			}
		})
	}
}

func TestValidatePrice(t *testing.T) {
	if warning := ValidatePrice("nisab.goldPricePerTola", 0); warning != "" {
		t.Errorf("zero price should mean not provided, got %q", warning)
	}
	if warning := ValidatePrice("nisab.goldPricePerTola", 30000); warning != "" {
		t.Errorf("unexpected warning %q", warning)
	}
	for _, value := range []float64{-1, math.NaN(), math.Inf(-1)} {
		if warning := ValidatePrice("nisab.silverPricePerTola", value); warning == "" {
			t.Errorf("ValidatePrice(%v) should warn", value)
		}
	}
}
