package prices

import "testing"

func TestMetalCode(t *testing.T) {
	if Gold.Code() != "xau" || Silver.Code() != "xag" {
		t.Errorf("codes = %q, %q", Gold.Code(), Silver.Code())
	}
	if Metal("platinum").Code() != "" {
		t.Error("unknown metal should have no code")
	}
}

func TestParseMetal(t *testing.T) {
	tests := []struct {
		input    string
		expected Metal
		wantErr  bool
	}{
		{"gold", Gold, false},
		{" GOLD ", Gold, false},
		{"xau", Gold, false},
		{"Silver", Silver, false},
		{"XAG", Silver, false},
		{"copper", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMetal(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetal(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseMetal(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestQuotePriceFor(t *testing.T) {
	quote := Quote{Metal: Gold, PerTola: map[string]int64{"pkr": 243750, "usd": 994, "sar": 0}}

	tests := []struct {
		code     string
		expected int64
		found    bool
	}{
		{"pkr", 243750, true},
		{"PKR", 243750, true},
		{" Usd ", 994, true},
		{"sar", 0, false},
		{"eur", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := quote.PriceFor(tt.code)
			if got != tt.expected || ok != tt.found {
				t.Errorf("PriceFor(%q) = %d, %v; expected %d, %v", tt.code, got, ok, tt.expected, tt.found)
			}
		})
	}

	if _, ok := (Quote{}).PriceFor("usd"); ok {
		t.Error("empty quote should not report a price")
	}
}

func TestReferencePrices(t *testing.T) {
	prices := ReferencePrices{
		Gold:   Quote{Metal: Gold, PerTola: map[string]int64{"pkr": 30000}, AsOf: "2025-03-01"},
		Silver: Quote{Metal: Silver, PerTola: map[string]int64{"pkr": 3000, "usd": 11}, AsOf: "2025-02-28"},
	}

	if prices.Date() != "2025-03-01" {
		t.Errorf("Date() = %q, expected gold date", prices.Date())
	}

	gold, silver := prices.PricesFor("PKR")
	if gold != 30000 || silver != 3000 {
		t.Errorf("PricesFor(PKR) = %d, %d", gold, silver)
	}
	gold, silver = prices.PricesFor("usd")
	if gold != 0 || silver != 11 {
		t.Errorf("PricesFor(usd) = %d, %d", gold, silver)
	}

	prices.Gold.AsOf = ""
	if prices.Date() != "2025-02-28" {
		t.Errorf("Date() = %q, expected silver date when gold has none", prices.Date())
	}
}
