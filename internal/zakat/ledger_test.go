package zakat

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/zakatease/internal/currency"
)

func TestNewLedgersDefaultToZero(t *testing.T) {
	assets := NewAssetLedger()
	if len(assets) != len(AssetCategories) {
		t.Fatalf("NewAssetLedger() has %d categories, expected %d", len(assets), len(AssetCategories))
	}
	for _, category := range AssetCategories {
		if value, ok := assets[category]; !ok || value != 0 {
			t.Errorf("asset %s = %v (present %v), expected 0", category, value, ok)
		}
	}

	deductions := NewDeductionLedger()
	if len(deductions) != len(DeductionCategories) {
		t.Fatalf("NewDeductionLedger() has %d categories, expected %d", len(deductions), len(DeductionCategories))
	}
	if deductions.Total() != 0 {
		t.Errorf("empty deduction ledger total = %v, expected 0", deductions.Total())
	}
}

func TestAssetLedgerSet(t *testing.T) {
	tests := []struct {
		name      string
		category  AssetCategory
		value     float64
		expected  float64
		expectErr error
	}{
		{"Positive value stored", CashInHand, 5000, 5000, nil},
		{"Zero stored", Gold, 0, 0, nil},
		{"Negative clamped", BankBalance, -10, 0, ErrInvalidLedgerValue},
		{"NaN clamped", TradeGoods, math.NaN(), 0, ErrInvalidLedgerValue},
		{"Infinity clamped", Silver, math.Inf(1), 0, ErrInvalidLedgerValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewAssetLedger()
			err := ledger.Set(tt.category, tt.value)
			if tt.expectErr == nil && err != nil {
				t.Fatalf("Set() unexpected error: %v", err)
			}
			if tt.expectErr != nil && !errors.Is(err, tt.expectErr) {
				t.Fatalf("Set() error = %v, expected %v", err, tt.expectErr)
			}
			if ledger[tt.category] != tt.expected {
				t.Errorf("ledger[%s] = %v, expected %v", tt.category, ledger[tt.category], tt.expected)
			}
		})
	}
}

func TestLedgerSetUnknownCategory(t *testing.T) {
	assets := NewAssetLedger()
	if err := assets.Set("yachts", 10); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("AssetLedger.Set() error = %v, expected ErrUnknownCategory", err)
	}
	if _, ok := assets["yachts"]; ok {
		t.Error("unknown asset category should not be stored")
	}

	deductions := NewDeductionLedger()
	if err := deductions.Set("gambling", 10); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("DeductionLedger.Set() error = %v, expected ErrUnknownCategory", err)
	}
	if err := deductions.Set(UtilityBills, -1); !errors.Is(err, ErrInvalidLedgerValue) {
		t.Errorf("DeductionLedger.Set() error = %v, expected ErrInvalidLedgerValue", err)
	}
}

func TestLedgerTotals(t *testing.T) {
	assets := AssetLedger{
		CashInHand:  1000,
		BankBalance: 2500.5,
		Gold:        -300,
		Silver:      math.NaN(),
		"unknown":   99999,
	}
	if total := assets.Total(); total != 3500.5 {
		t.Errorf("AssetLedger.Total() = %v, expected 3500.5", total)
	}

	deductions := DeductionLedger{UtilityBills: 200, EmployeeSalaries: 800}
	if total := deductions.Total(); total != 1000 {
		t.Errorf("DeductionLedger.Total() = %v, expected 1000", total)
	}

	var empty AssetLedger
	if total := empty.Total(); total != 0 {
		t.Errorf("nil ledger total = %v, expected 0", total)
	}
}

func TestParseCategories(t *testing.T) {
	assetTests := []struct {
		input    string
		expected AssetCategory
		ok       bool
	}{
		{"cashInHand", CashInHand, true},
		{"cashinhand", CashInHand, true},
		{"cash-in-hand", CashInHand, true},
		{"CASH_IN_HAND", CashInHand, true},
		{" gold ", Gold, true},
		{"businessPartnership", BusinessPartnership, true},
		{"yachts", "", false},
	}
	for _, tt := range assetTests {
		got, ok := ParseAssetCategory(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ParseAssetCategory(%q) = (%q, %v), expected (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
		}
	}

	deductionTests := []struct {
		input    string
		expected DeductionCategory
		ok       bool
	}{
		{"totalPayableDebts", TotalPayableDebts, true},
		{"previous-zakat", PreviousZakat, true},
		{"installmentsdue", InstallmentsDue, true},
		{"cashInHand", "", false},
	}
	for _, tt := range deductionTests {
		got, ok := ParseDeductionCategory(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ParseDeductionCategory(%q) = (%q, %v), expected (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestAssetStepsCoverEveryCategoryOnce(t *testing.T) {
	seen := make(map[AssetCategory]int)
	for _, step := range AssetSteps {
		for _, category := range step.Categories {
			seen[category]++
		}
	}
	for _, category := range AssetCategories {
		if seen[category] != 1 {
			t.Errorf("category %s appears in %d steps, expected 1", category, seen[category])
		}
	}
}

func TestApplyForeignEntries(t *testing.T) {
	ledger := NewAssetLedger()
	ledger[CashInHand] = 500

	entries := []currency.Entry{
		{CurrencyCode: "USD", Amount: 100, ExchangeRate: 280},
		{CurrencyCode: "USD", Amount: 50, ExchangeRate: 280},
	}

	total := ApplyForeignEntries(ledger, entries)
	if total != 42000 {
		t.Errorf("ApplyForeignEntries() = %v, expected 42000", total)
	}
	if ledger[ForeignCurrency] != 42000 {
		t.Errorf("ledger[foreignCurrency] = %v, expected 42000", ledger[ForeignCurrency])
	}
	if ledger[CashInHand] != 500 {
		t.Errorf("other categories changed: cashInHand = %v", ledger[CashInHand])
	}

	ApplyForeignEntries(ledger, nil)
	if ledger[ForeignCurrency] != 0 {
		t.Errorf("removing all entries should reset foreign currency, got %v", ledger[ForeignCurrency])
	}
}

func TestNilLedgers(t *testing.T) {
	var assets AssetLedger
	if err := assets.Set(CashInHand, 100); !errors.Is(err, ErrNilLedger) {
		t.Errorf("AssetLedger.Set() on nil ledger error = %v, expected ErrNilLedger", err)
	}

	var deductions DeductionLedger
	if err := deductions.Set(UtilityBills, 100); !errors.Is(err, ErrNilLedger) {
		t.Errorf("DeductionLedger.Set() on nil ledger error = %v, expected ErrNilLedger", err)
	}

	entries := []currency.Entry{{CurrencyCode: "USD", Amount: 10, ExchangeRate: 280}}
	if total := ApplyForeignEntries(nil, entries); total != 2800 {
		t.Errorf("ApplyForeignEntries(nil) = %v, expected 2800", total)
	}

	if assets.Total() != 0 || deductions.Total() != 0 {
		t.Errorf("nil ledgers should total 0")
	}
	if result := Compute(nil, nil, ThresholdConfig{GoldPricePerUnit: 30000}); result.Status() != StatusBelow {
		t.Errorf("Compute() on nil ledgers status = %s, expected below", result.Status())
	}
}

func TestClone(t *testing.T) {
	assets := AssetLedger{Gold: 10}
	clone := assets.Clone()
	clone[Gold] = 20
	if assets[Gold] != 10 {
		t.Error("AssetLedger.Clone() shares storage with the original")
	}

	deductions := DeductionLedger{UtilityBills: 10}
	dclone := deductions.Clone()
	dclone[UtilityBills] = 20
	if deductions[UtilityBills] != 10 {
		t.Error("DeductionLedger.Clone() shares storage with the original")
	}
}

func TestLabels(t *testing.T) {
	if CashInHand.Label() != "Cash in hand" {
		t.Errorf("CashInHand.Label() = %q", CashInHand.Label())
	}
	if PreviousZakat.Label() != "Zakat already paid" {
		t.Errorf("PreviousZakat.Label() = %q", PreviousZakat.Label())
	}
	if AssetCategory("custom").Label() != "custom" {
		t.Errorf("unknown category label should fall back to its key")
	}
}
