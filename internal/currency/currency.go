// Package currency normalizes reference prices and foreign currency holdings
// into the user's primary currency.
package currency

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ErrMalformedCurrencyRate marks a foreign currency entry that cannot
// contribute to the converted total.
var ErrMalformedCurrencyRate = errors.New("malformed currency rate")

var troyOuncesPerTola = decimal.NewFromFloat(constants.TroyOuncesPerTola)

// Entry is a holding of foreign currency together with the rate that converts
// one unit of it into the primary currency.
type Entry struct {
	ID           uuid.UUID `json:"id" mapstructure:"-"`
	CurrencyCode string    `json:"currencyCode" mapstructure:"currencyCode"`
	Amount       float64   `json:"amount" mapstructure:"amount"`
	ExchangeRate float64   `json:"exchangeRate" mapstructure:"exchangeRate"`
}

// NewEntry returns an empty entry for code with a fresh identifier.
func NewEntry(code string) Entry {
	return Entry{ID: uuid.New(), CurrencyCode: code}
}

// Converted returns the entry's value in the primary currency, or zero when
// either the amount or the rate is negative or not a finite number.
func (e Entry) Converted() decimal.Decimal {
	if !usable(e.Amount) || !usable(e.ExchangeRate) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(e.Amount).Mul(decimal.NewFromFloat(e.ExchangeRate))
}

// ConvertPerOunceToPerTola converts a price quoted per troy ounce into a price
// per tola, rounded half-up to a whole currency unit. Negative and non-finite
// prices convert to zero.
func ConvertPerOunceToPerTola(pricePerTroyOunce float64) int64 {
	price := mathutil.ClampNonNegative(pricePerTroyOunce)
	return decimal.NewFromFloat(price).Mul(troyOuncesPerTola).Round(0).IntPart()
}

// ConvertAll applies ConvertPerOunceToPerTola to every currency of a quote
// independently. Currency codes are passed through untouched.
func ConvertAll(perOunce map[string]float64) map[string]int64 {
	perTola := make(map[string]int64, len(perOunce))
	for code, price := range perOunce {
		perTola[code] = ConvertPerOunceToPerTola(price)
	}
	return perTola
}

// SumForeignEntries returns the sum of amount × exchange rate over entries.
// Entries with a negative or non-finite amount or rate contribute zero.
// Entries sharing a currency code are summed like any other.
func SumForeignEntries(entries []Entry) float64 {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Converted())
	}
	return total.InexactFloat64()
}

// ValidateEntries reports, for each entry that holds an amount but cannot be
// converted, an error wrapping ErrMalformedCurrencyRate. It never fails the
// aggregation itself.
func ValidateEntries(entries []Entry) []error {
	var errs []error
	for i, entry := range entries {
		switch {
		case !usable(entry.Amount):
			errs = append(errs, fmt.Errorf("%w: entry %d (%s) has invalid amount %v",
				ErrMalformedCurrencyRate, i+1, entry.CurrencyCode, entry.Amount))
		case !usable(entry.ExchangeRate):
			errs = append(errs, fmt.Errorf("%w: entry %d (%s) has invalid exchange rate %v",
				ErrMalformedCurrencyRate, i+1, entry.CurrencyCode, entry.ExchangeRate))
		case entry.Amount > 0 && entry.ExchangeRate == 0:
			errs = append(errs, fmt.Errorf("%w: entry %d (%s) has no exchange rate",
				ErrMalformedCurrencyRate, i+1, entry.CurrencyCode))
		}
	}
	return errs
}

func usable(val float64) bool {
	return mathutil.IsFinite(val) && val >= 0
}
