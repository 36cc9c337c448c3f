// Package config defines the ledger input file and the functions that load
// it and turn it into calculation inputs.
package config

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/iwvelando/zakatease/internal/currency"
	"github.com/iwvelando/zakatease/internal/prices"
	"github.com/iwvelando/zakatease/internal/zakat"
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/mathutil"
	"github.com/iwvelando/zakatease/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds one zakat declaration.
type Configuration struct {
	Currency        string
	Assets          map[string]float64
	Deductions      map[string]float64
	ForeignCurrency []currency.Entry
	Nisab           NisabConfig
	FetchPrices     bool
	Logging         LoggingConfig `yaml:"logging,omitempty"`
	Output          OutputConfig  `yaml:"output,omitempty"`
}

// NisabConfig holds the per-tola reference prices in the ledger currency.
type NisabConfig struct {
	GoldPricePerTola   float64
	SilverPricePerTola float64
	TieBreak           string // gold or silver, silver when empty
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetEnvPrefix("zakatease")
	v.AutomaticEnv()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
// Unlike LoadConfiguration it does not consult ZAKATEASE_* environment
// variables, so the document is decoded exactly as given.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetDefault("currency", constants.DefaultPrimaryCurrency)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		lenientFloatHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&configuration, hooks); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	for i := range configuration.ForeignCurrency {
		if configuration.ForeignCurrency[i].ID == uuid.Nil {
			configuration.ForeignCurrency[i].ID = uuid.New()
		}
	}
	return &configuration, nil
}

// lenientFloatHook decodes amounts that are not numbers as NaN instead of
// failing the whole document. NaN is clamped to zero and reported as a
// warning wherever the amount is used.
func lenientFloatHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Float64 {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		value, err := strconv.ParseFloat(strings.TrimSpace(reflect.ValueOf(data).String()), 64)
		if err != nil {
			return math.NaN(), nil
		}
		return value, nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return math.NaN(), nil
	default:
		return data, nil
	}
}

// CurrencyCode returns the upper-cased ledger currency, PKR when unset.
func (c *Configuration) CurrencyCode() string {
	code := strings.ToUpper(strings.TrimSpace(c.Currency))
	if code == "" {
		return constants.DefaultPrimaryCurrency
	}
	return code
}

// Ledgers builds the asset and deduction ledgers. The foreign currency asset
// is always the converted total of ForeignCurrency. The returned warnings
// cover ignored keys, clamped values and unusable foreign currency entries.
func (c *Configuration) Ledgers() (zakat.AssetLedger, zakat.DeductionLedger, []string) {
	var warnings []string

	assets := zakat.NewAssetLedger()
	for _, key := range sortedKeys(c.Assets) {
		category, ok := zakat.ParseAssetCategory(key)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown asset category %q ignored", key))
			continue
		}
		if category == zakat.ForeignCurrency {
			warnings = append(warnings,
				"assets.foreignCurrency is ignored, list holdings under foreignCurrency instead")
			continue
		}
		value := c.Assets[key]
		if warning := validation.ValidateAmount("assets."+string(category), value); warning != "" {
			warnings = append(warnings, warning)
		}
		_ = assets.Set(category, value)
	}

	deductions := zakat.NewDeductionLedger()
	for _, key := range sortedKeys(c.Deductions) {
		category, ok := zakat.ParseDeductionCategory(key)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown deduction category %q ignored", key))
			continue
		}
		value := c.Deductions[key]
		if warning := validation.ValidateAmount("deductions."+string(category), value); warning != "" {
			warnings = append(warnings, warning)
		}
		_ = deductions.Set(category, value)
	}

	for _, err := range currency.ValidateEntries(c.ForeignCurrency) {
		warnings = append(warnings, err.Error())
	}
	zakat.ApplyForeignEntries(assets, c.ForeignCurrency)

	return assets, deductions, warnings
}

// ThresholdConfig returns the configured nisab prices. Negative and
// non-finite prices are returned as 0, meaning not provided.
func (c *Configuration) ThresholdConfig() zakat.ThresholdConfig {
	return zakat.ThresholdConfig{
		GoldPricePerUnit:   mathutil.ClampNonNegative(c.Nisab.GoldPricePerTola),
		SilverPricePerUnit: mathutil.ClampNonNegative(c.Nisab.SilverPricePerTola),
	}
}

// Resolver returns the default resolver with the configured tie break. An
// invalid tie break returns the default resolver and an error.
func (c *Configuration) Resolver() (zakat.Resolver, error) {
	resolver := zakat.DefaultResolver()
	standard, err := zakat.ParseStandard(c.Nisab.TieBreak)
	if err != nil {
		return resolver, err
	}
	if standard != zakat.StandardNone {
		resolver.TieBreak = standard
	}
	return resolver, nil
}

// ApplyReferencePrices fills nisab prices that were not provided from the
// fetched quotes in the ledger currency. It reports whether any price was
// filled.
func (c *Configuration) ApplyReferencePrices(p prices.ReferencePrices) bool {
	gold, silver := p.PricesFor(c.CurrencyCode())
	applied := false
	if !(c.Nisab.GoldPricePerTola > 0) && gold > 0 {
		c.Nisab.GoldPricePerTola = float64(gold)
		applied = true
	}
	if !(c.Nisab.SilverPricePerTola > 0) && silver > 0 {
		c.Nisab.SilverPricePerTola = float64(silver)
		applied = true
	}
	return applied
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Nothing it reports stops a calculation.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateCurrencyCode(c.CurrencyCode()); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if _, err := c.Resolver(); err != nil {
		warnings = append(warnings, fmt.Sprintf("nisab.tieBreak ignored: %v", err))
	}
	if warning := validation.ValidatePrice("nisab.goldPricePerTola", c.Nisab.GoldPricePerTola); warning != "" {
		warnings = append(warnings, warning)
	}
	if warning := validation.ValidatePrice("nisab.silverPricePerTola", c.Nisab.SilverPricePerTola); warning != "" {
		warnings = append(warnings, warning)
	}
	for i, entry := range c.ForeignCurrency {
		if err := validation.ValidateCurrencyCode(entry.CurrencyCode); err != nil {
			warnings = append(warnings, fmt.Sprintf("foreign currency entry %d: %v", i+1, err))
		}
	}

	_, _, ledgerWarnings := c.Ledgers()
	return append(warnings, ledgerWarnings...)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
