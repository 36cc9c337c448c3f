package config

import "github.com/iwvelando/zakatease/internal/currency"

func newEntry(code string, amount, rate float64) currency.Entry {
	entry := currency.NewEntry(code)
	entry.Amount = amount
	entry.ExchangeRate = rate
	return entry
}
