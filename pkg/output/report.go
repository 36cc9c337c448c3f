// Package output renders a zakat calculation as a report document.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/zakatease/internal/currency"
	"github.com/iwvelando/zakatease/internal/zakat"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/datetime"
	"github.com/iwvelando/zakatease/pkg/format"
	"github.com/iwvelando/zakatease/pkg/mathutil"
	"github.com/iwvelando/zakatease/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Disclaimer closes every report.
const Disclaimer = "This report is an estimate based on the values you entered. " +
	"Consult a qualified scholar for rulings on your specific circumstances."

// Document is everything a report shows. The numbers are trusted as given;
// Calculation is expected to have been computed from the ledgers and Nisab.
type Document struct {
	Currency        string
	Date            string
	Assets          zakat.AssetLedger
	Deductions      zakat.DeductionLedger
	ForeignCurrency []currency.Entry
	Nisab           zakat.ThresholdConfig
	Calculation     zakat.Calculation
}

// Section is one titled group of non-zero ledger lines.
type Section struct {
	Title string
	Lines []Line
}

// Line is a labelled amount.
type Line struct {
	Label  string
	Amount float64
}

// Sections groups the non-zero asset categories by collection step and
// appends the non-zero deductions. Empty groups are omitted.
func (d Document) Sections() []Section {
	var sections []Section
	for _, step := range zakat.AssetSteps {
		section := Section{Title: step.Title}
		for _, category := range step.Categories {
			if amount := d.Assets[category]; !mathutil.IsZero(amount) {
				section.Lines = append(section.Lines, Line{Label: category.Label(), Amount: amount})
			}
		}
		if len(section.Lines) > 0 {
			sections = append(sections, section)
		}
	}

	deductions := Section{Title: "Deductions"}
	for _, category := range zakat.DeductionCategories {
		if amount := d.Deductions[category]; !mathutil.IsZero(amount) {
			deductions.Lines = append(deductions.Lines, Line{Label: category.Label(), Amount: amount})
		}
	}
	if len(deductions.Lines) > 0 {
		sections = append(sections, deductions)
	}
	return sections
}

// Headline is the one-line result shown at the top of a report.
func (d Document) Headline() string {
	calc := d.Calculation
	switch calc.Status() {
	case zakat.StatusDue:
		return "Zakat payable: " + format.Currency(calc.PayableAmount, d.Currency)
	case zakat.StatusBelow:
		return fmt.Sprintf("No zakat due: net wealth of %s is below the nisab of %s",
			format.Currency(calc.NetZakatableAmount, d.Currency),
			format.Currency(calc.ActiveThreshold, d.Currency))
	default:
		return "Nisab undetermined: no gold or silver price was provided"
	}
}

// Write renders doc to w in the given output format.
func Write(w io.Writer, outputFormat string, doc Document) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	if outputFormat == constants.OutputFormatCSV {
		return WriteCSV(w, doc)
	}
	return WritePretty(w, doc)
}

// WritePretty writes a human-readable report.
func WritePretty(w io.Writer, doc Document) error {
	p := message.NewPrinter(language.English)
	pw := &printer{w: w, p: p}
	code := format.CurrencyCode(doc.Currency)
	calc := doc.Calculation

	pw.printf("Zakat Calculation Report\n")
	pw.printf("As of %s, amounts in %s\n\n", datetime.LongDate(doc.Date), code)
	pw.printf("%s\n\n", doc.Headline())

	pw.printf("Summary\n")
	pw.line("Total assets", format.Currency(calc.TotalAssets, code))
	pw.line("Total deductions", format.Currency(calc.TotalDeductions, code))
	pw.line("Net zakatable wealth", format.Currency(calc.NetZakatableAmount, code))
	if calc.MeetsThreshold {
		pw.line("Zakat (2.5%)", format.Currency(calc.PayableAmount, code))
	}

	for _, section := range doc.Sections() {
		pw.printf("\n%s\n", section.Title)
		for _, line := range section.Lines {
			pw.line(line.Label, format.Currency(line.Amount, code))
		}
		if section.Title == zakat.AssetSteps[0].Title {
			for _, entry := range doc.ForeignCurrency {
				if entry.Converted().IsZero() {
					continue
				}
				pw.printf("    %s %s at %s = %s\n",
					format.CurrencyCode(entry.CurrencyCode), format.Decimal(entry.Amount),
					strconv.FormatFloat(entry.ExchangeRate, 'f', -1, 64),
					format.Currency(entry.Converted().InexactFloat64(), code))
			}
		}
	}

	pw.printf("\nNisab\n")
	pw.nisab("Gold", constants.NisabGoldTola, constants.NisabGoldGrams,
		doc.Nisab.GoldPricePerUnit, calc.GoldThreshold, calc.ActiveStandard == zakat.StandardGold, code)
	pw.nisab("Silver", constants.NisabSilverTola, constants.NisabSilverGrams,
		doc.Nisab.SilverPricePerUnit, calc.SilverThreshold, calc.ActiveStandard == zakat.StandardSilver, code)

	pw.printf("\n%s\n", Disclaimer)
	return pw.err
}

// WriteCSV writes the report as "section","item","amount" rows. Amounts are
// plain numbers with two decimals.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	calc := doc.Calculation
	code := format.CurrencyCode(doc.Currency)

	rows := [][]string{
		{"section", "item", "amount"},
		{"report", "date", doc.Date},
		{"report", "currency", code},
		{"report", "status", string(calc.Status())},
		{"summary", "totalAssets", amount(calc.TotalAssets)},
		{"summary", "totalDeductions", amount(calc.TotalDeductions)},
		{"summary", "netZakatableAmount", amount(calc.NetZakatableAmount)},
		{"summary", "payableAmount", amount(calc.PayableAmount)},
	}

	for _, category := range zakat.AssetCategories {
		if value := doc.Assets[category]; value > 0 {
			rows = append(rows, []string{"assets", string(category), amount(value)})
		}
	}
	for _, category := range zakat.DeductionCategories {
		if value := doc.Deductions[category]; value > 0 {
			rows = append(rows, []string{"deductions", string(category), amount(value)})
		}
	}
	for _, entry := range doc.ForeignCurrency {
		if entry.Converted().IsZero() {
			continue
		}
		rows = append(rows, []string{"foreignCurrency", format.CurrencyCode(entry.CurrencyCode),
			amount(entry.Converted().InexactFloat64())})
	}

	rows = append(rows,
		[]string{"nisab", "goldPricePerTola", amount(doc.Nisab.GoldPricePerUnit)},
		[]string{"nisab", "silverPricePerTola", amount(doc.Nisab.SilverPricePerUnit)},
		[]string{"nisab", "goldThreshold", amount(calc.GoldThreshold)},
		[]string{"nisab", "silverThreshold", amount(calc.SilverThreshold)},
		[]string{"nisab", "activeThreshold", amount(calc.ActiveThreshold)},
		[]string{"nisab", "activeStandard", string(calc.ActiveStandard)},
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV report: %w", err)
	}
	return nil
}

func amount(value float64) string {
	return strconv.FormatFloat(mathutil.Round(value), 'f', 2, 64)
}

type printer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *printer) printf(layout string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, layout, args...)
}

func (pw *printer) line(label, value string) {
	pw.printf("  %-28s %s\n", label, value)
}

func (pw *printer) nisab(metal string, tola, grams, price, threshold float64, active bool, code string) {
	label := pw.p.Sprintf("%s (%v tola, %v g)", metal, tola, grams)
	if !(price > 0) {
		pw.line(label, "price not provided")
		return
	}
	value := fmt.Sprintf("%s x %s = %s", format.Currency(price, code), strconv.FormatFloat(tola, 'f', -1, 64),
		format.Currency(threshold, code))
	if active {
		value += "  (applied)"
	}
	pw.line(label, value)
}
