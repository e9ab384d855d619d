// Package snapshot assembles per-ticker snapshots from company identity,
// fundamental periods and price history. Every build takes an explicit
// cutoff date: rows dated after the cutoff are dropped before any
// calculator runs, so a snapshot can never leak information from the
// future into a screen or backtest.
package snapshot

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mauv0809/steady-garbanzo/internal/growth"
	"github.com/mauv0809/steady-garbanzo/internal/indicators"
	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// Build merges fundamentals as of the cutoff with computed indicator and
// growth metrics. Fields that are NULL upstream or uncomputable stay
// absent from the snapshot; absence means unknown, never zero.
func Build(company models.Company, periods []models.Fundamental, prices []models.PricePoint, cutoff time.Time) models.Snapshot {
	snap := models.NewSnapshot(company.Ticker, company.Name, company.Sector, company.Industry)

	visible := make([]models.Fundamental, 0, len(periods))
	for _, p := range periods {
		if !p.PeriodEnd.After(cutoff) {
			visible = append(visible, p)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		return visible[i].PeriodEnd.Before(visible[j].PeriodEnd)
	})

	if len(visible) > 0 {
		applyFundamental(snap, visible[len(visible)-1])
	}

	growth.Metrics(toFinancialPeriods(visible)).ApplyTo(snap)

	series := make([]models.PricePoint, 0, len(prices))
	for _, p := range prices {
		if !p.Date.After(cutoff) {
			series = append(series, p)
		}
	}
	indicators.Compute(series).ApplyTo(snap)

	return snap
}

// applyFundamental copies the latest period's metric columns into the
// snapshot, skipping NULLs.
func applyFundamental(snap models.Snapshot, f models.Fundamental) {
	for name, v := range map[string]*decimal.Decimal{
		"market_cap":        f.MarketCap,
		"price":             f.Price,
		"price_to_book":     f.PriceToBook,
		"price_to_earnings": f.PriceToEarnings,
		"ev_ebitda":         f.EVEBITDA,
		"roe":               f.ROE,
		"roce":              f.ROCE,
		"debt_equity":       f.DebtEquity,
		"current_ratio":     f.CurrentRatio,
		"interest_coverage": f.InterestCoverage,
		"opm":               f.OPM,
		"npm":               f.NPM,
		"altman_z_score":    f.AltmanZScore,
		"ocf_to_net_profit": f.OCFToNetProfit,
	} {
		if v != nil {
			snap.SetMetric(name, v.InexactFloat64())
		}
	}
}

func toFinancialPeriods(rows []models.Fundamental) []models.FinancialPeriod {
	out := make([]models.FinancialPeriod, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.FinancialPeriod{
			PeriodEnd:         r.PeriodEnd,
			Revenue:           toFloat(r.Revenue),
			NetProfit:         toFloat(r.NetProfit),
			OperatingCashFlow: toFloat(r.OperatingCashFlow),
		})
	}
	return out
}

func toFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}
