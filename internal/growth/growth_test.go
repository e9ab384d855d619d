package growth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

func fy(year int) time.Time {
	return time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC)
}

func fp(year int, revenue, profit, ocf *float64) models.FinancialPeriod {
	return models.FinancialPeriod{
		PeriodEnd:         fy(year),
		Revenue:           revenue,
		NetProfit:         profit,
		OperatingCashFlow: ocf,
	}
}

func f(v float64) *float64 { return &v }

func TestCAGR(t *testing.T) {
	v, ok := CAGR(100, 200, 3)
	require.True(t, ok)
	assert.InDelta(t, 25.992, v, 0.001)

	v, ok = CAGR(100, 100, 5)
	require.True(t, ok)
	assert.InDelta(t, 0, v, 1e-9)

	v, ok = CAGR(400, 3200, 3)
	require.True(t, ok)
	assert.InDelta(t, 100, v, 1e-9)
}

func TestCAGRUndefined(t *testing.T) {
	_, ok := CAGR(0, 200, 3)
	assert.False(t, ok)

	_, ok = CAGR(-50, 200, 3)
	assert.False(t, ok)

	_, ok = CAGR(100, 200, 0)
	assert.False(t, ok)
}

func TestMetricsDoublingSeries(t *testing.T) {
	periods := []models.FinancialPeriod{
		fp(2018, f(100), f(10), f(8)),
		fp(2019, f(200), f(20), f(16)),
		fp(2020, f(400), f(40), f(32)),
		fp(2021, f(800), f(80), f(64)),
		fp(2022, f(1600), f(160), f(128)),
		fp(2023, f(3200), f(320), f(256)),
	}

	s := Metrics(periods)

	require.NotNil(t, s.RevenueCAGR3Y)
	require.NotNil(t, s.RevenueCAGR5Y)
	assert.InDelta(t, 100, *s.RevenueCAGR3Y, 1e-9)
	assert.InDelta(t, 100, *s.RevenueCAGR5Y, 1e-9)
	require.NotNil(t, s.ProfitCAGR3Y)
	assert.InDelta(t, 100, *s.ProfitCAGR3Y, 1e-9)
	require.NotNil(t, s.OCFCAGR5Y)
	assert.InDelta(t, 100, *s.OCFCAGR5Y, 1e-9)
}

func TestMetricsUnsortedInput(t *testing.T) {
	periods := []models.FinancialPeriod{
		fp(2023, f(3200), nil, nil),
		fp(2020, f(400), nil, nil),
		fp(2022, f(1600), nil, nil),
		fp(2021, f(800), nil, nil),
	}

	s := Metrics(periods)
	require.NotNil(t, s.RevenueCAGR3Y)
	assert.InDelta(t, 100, *s.RevenueCAGR3Y, 1e-9)
}

func TestMetricsInsufficientPeriods(t *testing.T) {
	periods := []models.FinancialPeriod{
		fp(2021, f(100), f(10), nil),
		fp(2022, f(120), f(12), nil),
		fp(2023, f(150), f(15), nil),
	}

	s := Metrics(periods)
	assert.Nil(t, s.RevenueCAGR3Y)
	assert.Nil(t, s.RevenueCAGR5Y)
	assert.Nil(t, s.ProfitCAGR3Y)
}

func TestMetricsFiscalYearGap(t *testing.T) {
	// 2020 is missing: the 3-year window would actually span four
	// years, so the metric must be undefined rather than interpolated.
	periods := []models.FinancialPeriod{
		fp(2018, f(100), nil, nil),
		fp(2019, f(120), nil, nil),
		fp(2021, f(180), nil, nil),
		fp(2022, f(220), nil, nil),
		fp(2023, f(260), nil, nil),
	}

	s := Metrics(periods)
	assert.Nil(t, s.RevenueCAGR3Y)
}

func TestMetricsNonPositiveBase(t *testing.T) {
	periods := []models.FinancialPeriod{
		fp(2020, f(-50), nil, nil),
		fp(2021, f(100), nil, nil),
		fp(2022, f(150), nil, nil),
		fp(2023, f(200), nil, nil),
	}

	s := Metrics(periods)
	assert.Nil(t, s.RevenueCAGR3Y)
}

func TestMetricsMissingValue(t *testing.T) {
	periods := []models.FinancialPeriod{
		fp(2020, f(100), nil, nil),
		fp(2021, f(120), nil, nil),
		fp(2022, f(150), nil, nil),
		fp(2023, nil, nil, nil),
	}

	s := Metrics(periods)
	assert.Nil(t, s.RevenueCAGR3Y)
}

func TestApplyToLeavesUndefinedAbsent(t *testing.T) {
	snap := models.NewSnapshot("T", "Test", "", "")
	Metrics([]models.FinancialPeriod{
		fp(2020, f(100), nil, nil),
		fp(2021, f(120), nil, nil),
		fp(2022, f(150), nil, nil),
		fp(2023, f(200), nil, nil),
	}).ApplyTo(snap)

	_, ok := snap.Metric("revenue_cagr_3y")
	assert.True(t, ok)
	_, ok = snap.Metric("profit_cagr_3y")
	assert.False(t, ok)
	_, ok = snap.Metric("revenue_cagr_5y")
	assert.False(t, ok)
}
