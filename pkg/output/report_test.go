package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/iwvelando/zakatease/internal/currency"
	"github.com/iwvelando/zakatease/internal/zakat"
)

func dueDocument() Document {
	assets := zakat.NewAssetLedger()
	assets[zakat.CashInHand] = 400000
	assets[zakat.BankBalance] = 572000
	assets[zakat.Gold] = 0
	deductions := zakat.NewDeductionLedger()
	deductions[zakat.TotalPayableDebts] = 200000

	entries := []currency.Entry{
		{CurrencyCode: "usd", Amount: 100, ExchangeRate: 280},
		{CurrencyCode: "gbp", Amount: 5, ExchangeRate: 0},
	}
	zakat.ApplyForeignEntries(assets, entries)

	nisab := zakat.ThresholdConfig{GoldPricePerUnit: 30000}
	return Document{
		Currency:        "PKR",
		Date:            "2025-03-01",
		Assets:          assets,
		Deductions:      deductions,
		ForeignCurrency: entries,
		Nisab:           nisab,
		Calculation:     zakat.Compute(assets, deductions, nisab),
	}
}

func TestSections(t *testing.T) {
	sections := dueDocument().Sections()

	if len(sections) != 2 {
		t.Fatalf("Sections() = %+v, expected cash and deductions only", sections)
	}
	cash := sections[0]
	if cash.Title != "Cash" || len(cash.Lines) != 3 {
		t.Errorf("cash section = %+v", cash)
	}
	if cash.Lines[2].Label != "Foreign currency" || cash.Lines[2].Amount != 28000 {
		t.Errorf("foreign currency line = %+v", cash.Lines[2])
	}
	if sections[1].Title != "Deductions" || sections[1].Lines[0].Label != "Payable debts" {
		t.Errorf("deductions section = %+v", sections[1])
	}

	if empty := (Document{}).Sections(); len(empty) != 0 {
		t.Errorf("empty document sections = %+v", empty)
	}
}

func TestHeadline(t *testing.T) {
	due := dueDocument()
	if got := due.Headline(); got != "Zakat payable: PKR 20,000" {
		t.Errorf("due headline = %q", got)
	}

	below := Document{
		Currency:    "PKR",
		Calculation: zakat.Compute(zakat.AssetLedger{zakat.BankBalance: 100000}, nil, zakat.ThresholdConfig{SilverPricePerUnit: 3000}),
	}
	if got := below.Headline(); got != "No zakat due: net wealth of PKR 100,000 is below the nisab of PKR 157,500" {
		t.Errorf("below headline = %q", got)
	}

	undetermined := Document{Calculation: zakat.Compute(zakat.AssetLedger{zakat.CashInHand: 500000}, nil, zakat.ThresholdConfig{})}
	if got := undetermined.Headline(); !strings.HasPrefix(got, "Nisab undetermined") {
		t.Errorf("undetermined headline = %q", got)
	}
}

func TestWritePretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePretty(&buf, dueDocument()); err != nil {
		t.Fatalf("WritePretty() error: %v", err)
	}
	out := buf.String()

	for _, fragment := range []string{
		"Zakat Calculation Report",
		"As of March 1, 2025, amounts in PKR",
		"Zakat payable: PKR 20,000",
		"Total assets",
		"PKR 1,000,000",
		"Net zakatable wealth",
		"PKR 800,000",
		"Cash in hand",
		"USD 100.00 at 280 = PKR 28,000",
		"Payable debts",
		"PKR 30,000 x 7.5 = PKR 225,000  (applied)",
		"price not provided",
		Disclaimer,
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("pretty output missing %q:\n%s", fragment, out)
		}
	}
	if strings.Contains(out, "GBP") {
		t.Errorf("unusable foreign currency entries should be omitted:\n%s", out)
	}
	if strings.Contains(out, "Precious metals") {
		t.Errorf("empty steps should be omitted:\n%s", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, dueDocument()); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	values := make(map[string]string)
	for _, record := range records {
		if len(record) != 3 {
			t.Fatalf("record %v does not have 3 fields", record)
		}
		values[record[0]+"."+record[1]] = record[2]
	}

	expected := map[string]string{
		"section.item":                 "amount",
		"report.date":                  "2025-03-01",
		"report.currency":              "PKR",
		"report.status":                "due",
		"summary.totalAssets":          "1000000.00",
		"summary.totalDeductions":      "200000.00",
		"summary.netZakatableAmount":   "800000.00",
		"summary.payableAmount":        "20000.00",
		"assets.cashInHand":            "400000.00",
		"assets.foreignCurrency":       "28000.00",
		"deductions.totalPayableDebts": "200000.00",
		"foreignCurrency.USD":          "28000.00",
		"nisab.goldThreshold":          "225000.00",
		"nisab.activeStandard":         "gold",
	}
	for key, value := range expected {
		if values[key] != value {
			t.Errorf("%s = %q, expected %q", key, values[key], value)
		}
	}
	if _, ok := values["assets.gold"]; ok {
		t.Error("zero categories should be omitted")
	}
	if records[0][0] != "section" {
		t.Errorf("first record = %v, expected header", records[0])
	}
}

func TestWrite(t *testing.T) {
	doc := dueDocument()

	var pretty, csvOut bytes.Buffer
	if err := Write(&pretty, "pretty", doc); err != nil {
		t.Fatalf("Write(pretty) error: %v", err)
	}
	if err := Write(&csvOut, "csv", doc); err != nil {
		t.Fatalf("Write(csv) error: %v", err)
	}
	if !strings.HasPrefix(pretty.String(), "Zakat Calculation Report") {
		t.Errorf("pretty output = %q", pretty.String())
	}
	if !strings.HasPrefix(csvOut.String(), "section,item,amount") {
		t.Errorf("csv output = %q", csvOut.String())
	}

	if err := Write(&bytes.Buffer{}, "pdf", doc); err == nil {
		t.Error("Write() should reject unknown formats")
	}
}
