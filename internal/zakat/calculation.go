// Package zakat computes the zakat due on a set of declared assets and
// deductions against a gold- or silver-based nisab threshold.
//
// Everything in this package is pure: no I/O, no clock, no shared state, and
// inputs are never mutated, so any function may be called concurrently.
package zakat

import (
	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/mathutil"
)

// Status summarizes a Calculation for presentation.
type Status string

const (
	// StatusDue means a threshold was resolved and met.
	StatusDue Status = "due"
	// StatusBelow means a threshold was resolved and not met.
	StatusBelow Status = "below"
	// StatusUndetermined means no reference price was available, so no
	// threshold could be resolved.
	StatusUndetermined Status = "undetermined"
)

// Calculation is the immutable result of Compute.
type Calculation struct {
	TotalAssets        float64  `json:"totalAssets"`
	TotalDeductions    float64  `json:"totalDeductions"`
	NetZakatableAmount float64  `json:"netZakatableAmount"`
	GoldThreshold      float64  `json:"goldThreshold"`
	SilverThreshold    float64  `json:"silverThreshold"`
	ActiveThreshold    float64  `json:"activeThreshold"`
	ActiveStandard     Standard `json:"activeStandard"`
	Determined         bool     `json:"determined"`
	MeetsThreshold     bool     `json:"meetsThreshold"`
	PayableAmount      float64  `json:"payableAmount"`
}

// Status reports whether zakat is due, the wealth is below the threshold, or
// no threshold could be determined.
func (c Calculation) Status() Status {
	switch {
	case !c.Determined:
		return StatusUndetermined
	case c.MeetsThreshold:
		return StatusDue
	default:
		return StatusBelow
	}
}

// Calculator computes zakat with a specific Resolver.
type Calculator struct {
	resolver Resolver
}

// NewCalculator returns a Calculator using resolver. Non-positive unit
// quantities fall back to the DefaultResolver values.
func NewCalculator(resolver Resolver) Calculator {
	defaults := DefaultResolver()
	if !(resolver.GoldUnits > 0) {
		resolver.GoldUnits = defaults.GoldUnits
	}
	if !(resolver.SilverUnits > 0) {
		resolver.SilverUnits = defaults.SilverUnits
	}
	return Calculator{resolver: resolver}
}

// Resolver returns the resolver used by the calculator.
func (c Calculator) Resolver() Resolver {
	return c.resolver
}

// Compute derives the full Calculation from the ledgers and reference prices.
//
// Missing categories count as zero and keys outside the fixed category sets
// are ignored. Negative and non-finite ledger values and prices are clamped
// to zero rather than reported; callers wanting warnings should validate
// before calling.
func (c Calculator) Compute(assets AssetLedger, deductions DeductionLedger, cfg ThresholdConfig) Calculation {
	totalAssets := assets.Total()
	totalDeductions := deductions.Total()
	net := mathutil.ClampNonNegative(totalAssets - totalDeductions)

	threshold := c.resolver.Resolve(cfg.GoldPricePerUnit, cfg.SilverPricePerUnit)
	determined := threshold.Determined()
	// A zero net amount never owes anything, even against a degenerate
	// zero threshold.
	meets := determined && net > 0 && net >= threshold.Active

	payable := 0.0
	if meets {
		payable = net / constants.ZakatDivisor
	}

	return Calculation{
		TotalAssets:        totalAssets,
		TotalDeductions:    totalDeductions,
		NetZakatableAmount: net,
		GoldThreshold:      threshold.Gold,
		SilverThreshold:    threshold.Silver,
		ActiveThreshold:    threshold.Active,
		ActiveStandard:     threshold.Standard,
		Determined:         determined,
		MeetsThreshold:     meets,
		PayableAmount:      payable,
	}
}

// Compute runs a Calculator built on DefaultResolver.
func Compute(assets AssetLedger, deductions DeductionLedger, cfg ThresholdConfig) Calculation {
	return NewCalculator(DefaultResolver()).Compute(assets, deductions, cfg)
}
