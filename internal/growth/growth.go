// Package growth turns multi-year financial series into compound growth
// metrics and derives the standard financial ratios used for screening.
package growth

import (
	"math"
	"sort"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// Set holds CAGR values for one ticker, as percentages. Nil means the
// metric is undefined: not enough periods, a gap in the fiscal years, or
// a non-positive base value.
type Set struct {
	RevenueCAGR3Y *float64 `json:"revenue_cagr_3y"`
	RevenueCAGR5Y *float64 `json:"revenue_cagr_5y"`
	ProfitCAGR3Y  *float64 `json:"profit_cagr_3y"`
	ProfitCAGR5Y  *float64 `json:"profit_cagr_5y"`
	OCFCAGR3Y     *float64 `json:"ocf_cagr_3y"`
	OCFCAGR5Y     *float64 `json:"ocf_cagr_5y"`
}

// Metrics computes 3- and 5-year CAGR for revenue, net profit and
// operating cash flow. The input may be in any order; it is normalized to
// chronological before windowing.
func Metrics(periods []models.FinancialPeriod) Set {
	ordered := make([]models.FinancialPeriod, len(periods))
	copy(ordered, periods)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].PeriodEnd.Before(ordered[j].PeriodEnd)
	})

	revenue := func(p models.FinancialPeriod) *float64 { return p.Revenue }
	profit := func(p models.FinancialPeriod) *float64 { return p.NetProfit }
	ocf := func(p models.FinancialPeriod) *float64 { return p.OperatingCashFlow }

	return Set{
		RevenueCAGR3Y: cagrOver(ordered, revenue, 3),
		RevenueCAGR5Y: cagrOver(ordered, revenue, 5),
		ProfitCAGR3Y:  cagrOver(ordered, profit, 3),
		ProfitCAGR5Y:  cagrOver(ordered, profit, 5),
		OCFCAGR3Y:     cagrOver(ordered, ocf, 3),
		OCFCAGR5Y:     cagrOver(ordered, ocf, 5),
	}
}

// ApplyTo merges the computed values into a snapshot, leaving undefined
// metrics absent.
func (s Set) ApplyTo(snap models.Snapshot) {
	for name, v := range map[string]*float64{
		"revenue_cagr_3y": s.RevenueCAGR3Y,
		"revenue_cagr_5y": s.RevenueCAGR5Y,
		"profit_cagr_3y":  s.ProfitCAGR3Y,
		"profit_cagr_5y":  s.ProfitCAGR5Y,
		"ocf_cagr_3y":     s.OCFCAGR3Y,
		"ocf_cagr_5y":     s.OCFCAGR5Y,
	} {
		if v != nil {
			snap.SetMetric(name, *v)
		}
	}
}

// CAGR returns the compound annual growth rate from base to latest over
// the given number of years, as a percentage. Undefined (ok=false) when
// the base is not strictly positive or years is zero; a negative base has
// no real-valued growth rate and must not be fabricated.
func CAGR(base, latest float64, years int) (float64, bool) {
	if years == 0 || base <= 0 {
		return 0, false
	}
	return (math.Pow(latest/base, 1/float64(years)) - 1) * 100, true
}

// cagrOver picks the latest period and the one `years` fiscal years
// before it. Missing intermediate years make the window undefined; the
// series is never interpolated.
func cagrOver(ordered []models.FinancialPeriod, metric func(models.FinancialPeriod) *float64, years int) *float64 {
	if len(ordered) < years+1 {
		return nil
	}

	latest := ordered[len(ordered)-1]
	base := ordered[len(ordered)-1-years]

	// Consecutive fiscal years only: a gap anywhere in the window means
	// the base is further back than `years` years.
	for i := len(ordered) - 1 - years; i < len(ordered)-1; i++ {
		if ordered[i+1].PeriodEnd.Year()-ordered[i].PeriodEnd.Year() != 1 {
			return nil
		}
	}

	baseVal, latestVal := metric(base), metric(latest)
	if baseVal == nil || latestVal == nil {
		return nil
	}

	v, ok := CAGR(*baseVal, *latestVal, years)
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}
