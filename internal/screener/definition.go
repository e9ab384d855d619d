package screener

import (
	"strings"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// Logic combines the criteria of a definition.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// validFields is the set of metric names a criterion may reference.
// Unrecognized fields fail validation instead of silently matching
// nothing.
var validFields = map[string]bool{
	// Valuation
	"price_to_book":     true,
	"price_to_earnings": true,
	"ev_ebitda":         true,
	// Profitability
	"roe":  true,
	"roce": true,
	"opm":  true,
	"npm":  true,
	// Leverage
	"debt_equity":       true,
	"current_ratio":     true,
	"interest_coverage": true,
	// Growth
	"revenue_cagr_3y": true,
	"revenue_cagr_5y": true,
	"profit_cagr_3y":  true,
	"profit_cagr_5y":  true,
	"ocf_cagr_3y":     true,
	"ocf_cagr_5y":     true,
	// Quality
	"altman_z_score":    true,
	"ocf_to_net_profit": true,
	// Technical
	"ema_20":           true,
	"ema_50":           true,
	"macd":             true,
	"macd_signal":      true,
	"macd_histogram":   true,
	"atr_14":           true,
	"choppiness_index": true,
	"ema_bullish":      true,
	"ema_bearish":      true,
	"macd_bullish":     true,
	"macd_bearish":     true,
	"trending":         true,
	"choppy":           true,
	// Other
	"market_cap": true,
	"price":      true,
}

// ValidFields returns the recognized metric names, for API discovery.
func ValidFields() []string {
	out := make([]string, 0, len(validFields))
	for f := range validFields {
		out = append(out, f)
	}
	return out
}

// Definition is a named screen: an ordered set of criteria combined with
// AND or OR. Predefined screens (compiled table) and custom screens
// (loaded records) are both Definitions; the engine does not distinguish
// them.
type Definition struct {
	Key         string      `json:"key,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Logic       Logic       `json:"logic"`
	Criteria    []Criterion `json:"criteria"`
}

// Validate checks the definition before any matching begins.
func (d Definition) Validate() error {
	if len(d.Criteria) == 0 {
		return validationErrorf("screen %q has no criteria; a screen must never pass everything by default", d.Name)
	}
	if d.Logic != LogicAnd && d.Logic != LogicOr {
		return validationErrorf("invalid logic %q: must be AND or OR", d.Logic)
	}
	for _, c := range d.Criteria {
		if !validFields[c.Field] {
			return validationErrorf("invalid field %q: must be one of %s", c.Field, strings.Join(ValidFields(), ", "))
		}
		if !c.Operator.valid() {
			return validationErrorf("invalid operator %q for field %q", c.Operator, c.Field)
		}
	}
	return nil
}

// Matches evaluates all criteria against a snapshot. Under AND every
// criterion must be True; under OR at least one must be True. Unknown
// always counts as a failed criterion, never as a wildcard: a screen must
// not match on missing data by accident.
func (d Definition) Matches(snap models.Snapshot) bool {
	if d.Logic == LogicOr {
		for _, c := range d.Criteria {
			if c.Evaluate(snap) == True {
				return true
			}
		}
		return false
	}

	for _, c := range d.Criteria {
		if c.Evaluate(snap) != True {
			return false
		}
	}
	return true
}
