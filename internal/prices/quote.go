// Package prices fetches gold and silver reference prices from the public
// currency API, converts them to per-tola prices, and caches them.
package prices

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPriceUnavailable means no usable quote could be obtained for a metal.
	// Callers treat it as "no reference price known".
	ErrPriceUnavailable = errors.New("reference price unavailable")

	// ErrMalformedPayload marks a price source response that carries no
	// usable rates for the requested metal.
	ErrMalformedPayload = errors.New("malformed price payload")
)

// Metal is a precious metal with a published reference price.
type Metal string

const (
	Gold   Metal = "gold"
	Silver Metal = "silver"
)

// Code returns the ISO 4217 style code the price source uses for the metal.
func (m Metal) Code() string {
	switch m {
	case Gold:
		return "xau"
	case Silver:
		return "xag"
	default:
		return ""
	}
}

// ParseMetal accepts a metal name or its code, case-insensitively.
func ParseMetal(value string) (Metal, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "gold", "xau":
		return Gold, nil
	case "silver", "xag":
		return Silver, nil
	default:
		return "", fmt.Errorf("unknown metal %q", value)
	}
}

// Quote is a per-tola price of one metal in every currency the source
// publishes, as of a given date. Currency codes are lowercase as delivered.
type Quote struct {
	Metal   Metal            `json:"metal"`
	PerTola map[string]int64 `json:"perTola"`
	AsOf    string           `json:"date"`
}

// PriceFor returns the per-tola price in the currency code, looked up
// case-insensitively. A missing or zero price reports false.
func (q Quote) PriceFor(code string) (int64, bool) {
	price, ok := q.PerTola[strings.ToLower(strings.TrimSpace(code))]
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}

// ReferencePrices holds the gold and silver quotes fetched together.
type ReferencePrices struct {
	Gold   Quote
	Silver Quote
}

// Date returns the as-of date of the pair, taken from the gold quote when it
// has one.
func (p ReferencePrices) Date() string {
	if p.Gold.AsOf != "" {
		return p.Gold.AsOf
	}
	return p.Silver.AsOf
}

// PricesFor returns the gold and silver per-tola prices in code. Missing
// prices are zero.
func (p ReferencePrices) PricesFor(code string) (gold, silver int64) {
	gold, _ = p.Gold.PriceFor(code)
	silver, _ = p.Silver.PriceFor(code)
	return gold, silver
}
