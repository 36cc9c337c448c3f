package zakat

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/zakatease/pkg/constants"
	"github.com/iwvelando/zakatease/pkg/mathutil"
)

// Standard names the metal whose price sets the nisab threshold.
type Standard string

const (
	// StandardNone means no metal price was provided.
	StandardNone   Standard = ""
	StandardGold   Standard = "gold"
	StandardSilver Standard = "silver"
)

// ParseStandard parses "gold" or "silver" case-insensitively. An empty
// string parses to StandardNone.
func ParseStandard(value string) (Standard, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return StandardNone, nil
	case string(StandardGold):
		return StandardGold, nil
	case string(StandardSilver):
		return StandardSilver, nil
	default:
		return StandardNone, fmt.Errorf("expected nisab standard of %s or %s, got %s",
			StandardGold, StandardSilver, value)
	}
}

// MarshalJSON encodes StandardNone as null.
func (s Standard) MarshalJSON() ([]byte, error) {
	if s == StandardNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null, "gold" and "silver".
func (s *Standard) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StandardNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStandard(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ThresholdConfig holds the per-tola reference prices of both metals in the
// primary currency. Zero means the price was not provided.
type ThresholdConfig struct {
	GoldPricePerUnit   float64 `json:"goldPricePerUnit"`
	SilverPricePerUnit float64 `json:"silverPricePerUnit"`
}

// Threshold is the outcome of resolving a ThresholdConfig.
type Threshold struct {
	Gold     float64
	Silver   float64
	Active   float64
	Standard Standard
}

// Determined reports whether a threshold was resolved at all.
func (t Threshold) Determined() bool {
	return t.Standard != StandardNone
}

// Resolver picks the applicable nisab threshold from the two metal-based
// candidates.
type Resolver struct {
	GoldUnits   float64
	SilverUnits float64
	// TieBreak wins when both thresholds are equal. Anything other than
	// StandardGold behaves as StandardSilver.
	TieBreak Standard
}

// DefaultResolver returns the 7.5 tola gold / 52.5 tola silver resolver that
// favors silver on ties.
func DefaultResolver() Resolver {
	return Resolver{
		GoldUnits:   constants.NisabGoldTola,
		SilverUnits: constants.NisabSilverTola,
		TieBreak:    StandardSilver,
	}
}

// Resolve computes both candidate thresholds and selects one:
//   - only one price positive: that metal's threshold
//   - both positive: the lower threshold, TieBreak on equality
//   - neither positive: StandardNone with an active threshold of zero
//
// Negative and non-finite prices count as not provided.
func (r Resolver) Resolve(goldPricePerUnit, silverPricePerUnit float64) Threshold {
	goldPrice := mathutil.ClampNonNegative(goldPricePerUnit)
	silverPrice := mathutil.ClampNonNegative(silverPricePerUnit)

	// Thresholds saturate rather than overflow so results stay encodable.
	t := Threshold{
		Gold:   math.Min(r.GoldUnits*goldPrice, math.MaxFloat64),
		Silver: math.Min(r.SilverUnits*silverPrice, math.MaxFloat64),
	}

	hasGold := goldPrice > 0
	hasSilver := silverPrice > 0

	switch {
	case hasGold && hasSilver:
		switch {
		case t.Silver < t.Gold:
			t.Standard = StandardSilver
		case t.Gold < t.Silver:
			t.Standard = StandardGold
		case r.TieBreak == StandardGold:
			t.Standard = StandardGold
		default:
			t.Standard = StandardSilver
		}
	case hasGold:
		t.Standard = StandardGold
	case hasSilver:
		t.Standard = StandardSilver
	}

	switch t.Standard {
	case StandardGold:
		t.Active = t.Gold
	case StandardSilver:
		t.Active = t.Silver
	}
	return t
}

// ResolveThreshold resolves prices with DefaultResolver.
func ResolveThreshold(goldPricePerUnit, silverPricePerUnit float64) Threshold {
	return DefaultResolver().Resolve(goldPricePerUnit, silverPricePerUnit)
}
