package zakat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/zakatease/internal/currency"
	"github.com/iwvelando/zakatease/pkg/mathutil"
)

var (
	// ErrInvalidLedgerValue marks a negative or non-numeric ledger value that
	// was stored as zero.
	ErrInvalidLedgerValue = errors.New("invalid ledger value")

	// ErrUnknownCategory marks a ledger key outside the fixed category sets.
	ErrUnknownCategory = errors.New("unknown ledger category")

	// ErrNilLedger is returned when writing to a ledger that was not created
	// with NewAssetLedger or NewDeductionLedger.
	ErrNilLedger = errors.New("nil ledger")
)

// AssetCategory identifies one kind of zakatable wealth.
type AssetCategory string

const (
	Gold                AssetCategory = "gold"
	Silver              AssetCategory = "silver"
	TradeGoods          AssetCategory = "tradeGoods"
	CashInHand          AssetCategory = "cashInHand"
	BankBalance         AssetCategory = "bankBalance"
	ReceivableDebts     AssetCategory = "receivableDebts"
	ForeignCurrency     AssetCategory = "foreignCurrency"
	SharesForSale       AssetCategory = "sharesForSale"
	SharesForDividends  AssetCategory = "sharesForDividends"
	SavingsCertificates AssetCategory = "savingsCertificates"
	SecurityDeposits    AssetCategory = "securityDeposits"
	CommitteeDeposits   AssetCategory = "committeeDeposits"
	RawMaterials        AssetCategory = "rawMaterials"
	FinishedGoods       AssetCategory = "finishedGoods"
	BusinessPartnership AssetCategory = "businessPartnership"
)

// AssetCategories lists every asset category in summation order.
var AssetCategories = []AssetCategory{
	Gold, Silver, TradeGoods, CashInHand, BankBalance, ReceivableDebts,
	ForeignCurrency, SharesForSale, SharesForDividends, SavingsCertificates,
	SecurityDeposits, CommitteeDeposits, RawMaterials, FinishedGoods,
	BusinessPartnership,
}

var assetLabels = map[AssetCategory]string{
	Gold:                "Gold",
	Silver:              "Silver",
	TradeGoods:          "Trade goods",
	CashInHand:          "Cash in hand",
	BankBalance:         "Bank balance",
	ReceivableDebts:     "Receivable debts",
	ForeignCurrency:     "Foreign currency",
	SharesForSale:       "Shares held for sale",
	SharesForDividends:  "Shares held for dividends",
	SavingsCertificates: "Savings certificates",
	SecurityDeposits:    "Security deposits",
	CommitteeDeposits:   "Committee deposits",
	RawMaterials:        "Raw materials",
	FinishedGoods:       "Finished goods",
	BusinessPartnership: "Business partnership share",
}

// Label returns the English display name of the category.
func (c AssetCategory) Label() string {
	if label, ok := assetLabels[c]; ok {
		return label
	}
	return string(c)
}

// DeductionCategory identifies one kind of liability deducted from assets.
type DeductionCategory string

const (
	TotalPayableDebts DeductionCategory = "totalPayableDebts"
	CommitteeBalance  DeductionCategory = "committeeBalance"
	UtilityBills      DeductionCategory = "utilityBills"
	PartyPayments     DeductionCategory = "partyPayments"
	EmployeeSalaries  DeductionCategory = "employeeSalaries"
	PreviousZakat     DeductionCategory = "previousZakat"
	InstallmentsDue   DeductionCategory = "installmentsDue"
)

// DeductionCategories lists every deduction category in summation order.
var DeductionCategories = []DeductionCategory{
	TotalPayableDebts, CommitteeBalance, UtilityBills, PartyPayments,
	EmployeeSalaries, PreviousZakat, InstallmentsDue,
}

var deductionLabels = map[DeductionCategory]string{
	TotalPayableDebts: "Payable debts",
	CommitteeBalance:  "Committee balance",
	UtilityBills:      "Utility bills",
	PartyPayments:     "Party payments",
	EmployeeSalaries:  "Employee salaries",
	PreviousZakat:     "Zakat already paid",
	InstallmentsDue:   "Installments due",
}

// Label returns the English display name of the category.
func (c DeductionCategory) Label() string {
	if label, ok := deductionLabels[c]; ok {
		return label
	}
	return string(c)
}

// AssetStep groups asset categories the way they are collected from a user.
type AssetStep struct {
	ID         string
	Title      string
	Categories []AssetCategory
}

// AssetSteps lists the asset collection steps in order. Deductions form a
// single final step covering DeductionCategories.
var AssetSteps = []AssetStep{
	{ID: "cash", Title: "Cash", Categories: []AssetCategory{CashInHand, BankBalance, ForeignCurrency}},
	{ID: "precious", Title: "Precious metals", Categories: []AssetCategory{Gold, Silver}},
	{ID: "investments", Title: "Investments", Categories: []AssetCategory{SharesForSale, SharesForDividends, SavingsCertificates}},
	{ID: "business", Title: "Business", Categories: []AssetCategory{TradeGoods, RawMaterials, FinishedGoods, BusinessPartnership}},
	{ID: "other", Title: "Other assets", Categories: []AssetCategory{ReceivableDebts, SecurityDeposits, CommitteeDeposits}},
}

// ParseAssetCategory resolves a category key case-insensitively, ignoring
// '-' and '_' so that "cash-in-hand", "cash_in_hand" and "cashinhand" all
// resolve to CashInHand.
func ParseAssetCategory(key string) (AssetCategory, bool) {
	normalized := normalizeKey(key)
	for _, category := range AssetCategories {
		if strings.ToLower(string(category)) == normalized {
			return category, true
		}
	}
	return "", false
}

// ParseDeductionCategory resolves a category key like ParseAssetCategory.
func ParseDeductionCategory(key string) (DeductionCategory, bool) {
	normalized := normalizeKey(key)
	for _, category := range DeductionCategories {
		if strings.ToLower(string(category)) == normalized {
			return category, true
		}
	}
	return "", false
}

func normalizeKey(key string) string {
	replacer := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(key)))
}

// AssetLedger maps asset categories to amounts in the primary currency.
type AssetLedger map[AssetCategory]float64

// NewAssetLedger returns a ledger with every category set to zero.
func NewAssetLedger() AssetLedger {
	ledger := make(AssetLedger, len(AssetCategories))
	for _, category := range AssetCategories {
		ledger[category] = 0
	}
	return ledger
}

// Set updates a single category. Negative and non-finite values are stored
// as zero and reported with ErrInvalidLedgerValue; unknown categories are not
// stored and reported with ErrUnknownCategory. A nil ledger reports
// ErrNilLedger.
func (l AssetLedger) Set(category AssetCategory, value float64) error {
	if _, ok := assetLabels[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return setClamped(l, category, value)
}

// Total sums every category in AssetCategories order.
func (l AssetLedger) Total() float64 {
	return sumInOrder(l, AssetCategories)
}

// Clone returns an independent copy of the ledger.
func (l AssetLedger) Clone() AssetLedger {
	clone := make(AssetLedger, len(l))
	for category, value := range l {
		clone[category] = value
	}
	return clone
}

// DeductionLedger maps deduction categories to amounts in the primary currency.
type DeductionLedger map[DeductionCategory]float64

// NewDeductionLedger returns a ledger with every category set to zero.
func NewDeductionLedger() DeductionLedger {
	ledger := make(DeductionLedger, len(DeductionCategories))
	for _, category := range DeductionCategories {
		ledger[category] = 0
	}
	return ledger
}

// Set updates a single category with the same clamping rules as
// AssetLedger.Set.
func (l DeductionLedger) Set(category DeductionCategory, value float64) error {
	if _, ok := deductionLabels[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return setClamped(l, category, value)
}

// Total sums every category in DeductionCategories order.
func (l DeductionLedger) Total() float64 {
	return sumInOrder(l, DeductionCategories)
}

// Clone returns an independent copy of the ledger.
func (l DeductionLedger) Clone() DeductionLedger {
	clone := make(DeductionLedger, len(l))
	for category, value := range l {
		clone[category] = value
	}
	return clone
}

// ApplyForeignEntries stores the converted total of entries as the ledger's
// foreign currency amount and returns it. A nil ledger is left untouched.
func ApplyForeignEntries(ledger AssetLedger, entries []currency.Entry) float64 {
	total := currency.SumForeignEntries(entries)
	if ledger != nil {
		ledger[ForeignCurrency] = total
	}
	return total
}

func setClamped[K ~string](ledger map[K]float64, category K, value float64) error {
	if ledger == nil {
		return fmt.Errorf("%w: cannot set %s", ErrNilLedger, category)
	}
	clamped := mathutil.ClampNonNegative(value)
	ledger[category] = clamped
	if clamped != value {
		return fmt.Errorf("%w: %s = %v stored as 0", ErrInvalidLedgerValue, category, value)
	}
	return nil
}

// sumInOrder walks a fixed key order so that float addition is reproducible,
// and treats missing, negative and non-finite values as zero. The sum
// saturates at math.MaxFloat64 instead of overflowing to +Inf.
func sumInOrder[K ~string](ledger map[K]float64, order []K) float64 {
	total := 0.0
	for _, category := range order {
		total = math.Min(total+mathutil.ClampNonNegative(ledger[category]), math.MaxFloat64)
	}
	return total
}
