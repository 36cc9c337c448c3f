// Package constants provides shared constants for the zakatease application.
package constants

import "time"

// DateLayout is the ISO date format used for price quotes and reports.
const DateLayout = "2006-01-02"

// Zakat constants
const (
	// ZakatDivisor turns a net zakatable amount into the payable amount (2.5%).
	ZakatDivisor = 40

	// NisabGoldTola is the gold nisab quantity in tola.
	NisabGoldTola = 7.5

	// NisabSilverTola is the silver nisab quantity in tola.
	NisabSilverTola = 52.5

	// NisabGoldGrams is the gold nisab quantity in grams.
	NisabGoldGrams = 87.48

	// NisabSilverGrams is the silver nisab quantity in grams.
	NisabSilverGrams = 612.36
)

// Mass constants. A tola is 180 grains and a troy ounce 480 grains, so a
// tola is exactly 3/8 of a troy ounce.
const (
	// TroyOuncesPerTola is the fraction of a troy ounce in one tola.
	TroyOuncesPerTola = 0.375
)

// Currency constants
const (
	// DefaultPrimaryCurrency is the currency ledgers are denominated in when
	// none is configured.
	DefaultPrimaryCurrency = "PKR"
)

// SupportedCurrencies lists the currencies offered for ledgers and foreign
// currency entries, primary currency first.
var SupportedCurrencies = []string{"PKR", "USD", "GBP", "EUR", "AED", "SAR", "USDT"}

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default ledger input file name
	DefaultConfigFile = "ledger.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxRequestSizeBytes int64 = 256 * 1024

	// DefaultRequestTimeout bounds a single HTTP request end to end.
	DefaultRequestTimeout = 30 * time.Second
)

// Price source defaults
const (
	// DefaultPrimaryPriceURL serves <code>.json currency documents.
	DefaultPrimaryPriceURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies"

	// DefaultFallbackPriceURL mirrors DefaultPrimaryPriceURL.
	DefaultFallbackPriceURL = "https://latest.currency-api.pages.dev/v1/currencies"

	// DefaultPriceAttemptTimeout bounds one request to one price source.
	DefaultPriceAttemptTimeout = 10 * time.Second

	// DefaultPriceTTL is how long a fetched quote is served as fresh.
	DefaultPriceTTL = 6 * time.Hour

	// DefaultPriceMaxStale is how long past DefaultPriceTTL a quote may still
	// be served while a refresh runs.
	DefaultPriceMaxStale = 12 * time.Hour
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)
