package ingest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mauv0809/steady-garbanzo/internal/growth"
	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// Response is the raw column-oriented payload from the tables API:
// columns define the schema, data contains rows as arrays.
type Response struct {
	Datatable struct {
		Data    [][]interface{} `json:"data"`
		Columns []Column        `json:"columns"`
	} `json:"datatable"`
	Meta struct {
		NextCursorID *string `json:"next_cursor_id"`
	} `json:"meta"`
}

// Column describes a column in the response.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TickerRow is one listing from the tickers table.
type TickerRow struct {
	Ticker     string
	Name       string
	Sector     string
	Industry   string
	IsDelisted bool
}

func (t TickerRow) Model() models.Company {
	return models.Company{
		Ticker:   t.Ticker,
		Name:     t.Name,
		Sector:   t.Sector,
		Industry: t.Industry,
		Active:   !t.IsDelisted,
	}
}

// FundamentalRow is one annual reporting period from the fundamentals
// table. Nil values are columns the vendor did not populate. The raw
// balance-sheet components at the bottom are kept only long enough to
// derive the quality scores; they are not stored.
type FundamentalRow struct {
	Ticker            string
	PeriodEnd         time.Time
	Revenue           *decimal.Decimal
	NetProfit         *decimal.Decimal
	OperatingCashFlow *decimal.Decimal
	MarketCap         *decimal.Decimal
	Price             *decimal.Decimal
	PriceToBook       *decimal.Decimal
	PriceToEarnings   *decimal.Decimal
	EVEBITDA          *decimal.Decimal
	ROE               *decimal.Decimal
	ROCE              *decimal.Decimal
	DebtEquity        *decimal.Decimal
	CurrentRatio      *decimal.Decimal
	InterestCoverage  *decimal.Decimal
	OPM               *decimal.Decimal
	NPM               *decimal.Decimal

	WorkingCapital     *decimal.Decimal
	RetainedEarnings   *decimal.Decimal
	EBIT               *decimal.Decimal
	TotalAssets        *decimal.Decimal
	TotalLiabilities   *decimal.Decimal
	Equity             *decimal.Decimal
	TotalDebt          *decimal.Decimal
	CurrentAssets      *decimal.Decimal
	CurrentLiabilities *decimal.Decimal
	InterestExpense    *decimal.Decimal
	EnterpriseValue    *decimal.Decimal
	EBITDA             *decimal.Decimal
	OperatingIncome    *decimal.Decimal
}

// Model converts the row into its storage shape. Ratio columns the vendor
// left NULL are derived from the raw statement components when those are
// present; a vendor-supplied value always wins over a derivation.
func (f FundamentalRow) Model() models.Fundamental {
	m := models.Fundamental{
		Ticker:            f.Ticker,
		PeriodEnd:         f.PeriodEnd,
		Revenue:           f.Revenue,
		NetProfit:         f.NetProfit,
		OperatingCashFlow: f.OperatingCashFlow,
		MarketCap:         f.MarketCap,
		Price:             f.Price,
		PriceToBook:       derive(f.PriceToBook, f.MarketCap, f.Equity, growth.PriceToBook),
		PriceToEarnings:   derive(f.PriceToEarnings, f.MarketCap, f.NetProfit, growth.PriceToEarnings),
		EVEBITDA:          derive(f.EVEBITDA, f.EnterpriseValue, f.EBITDA, growth.EVEBITDA),
		ROE:               derive(f.ROE, f.NetProfit, f.Equity, growth.ROE),
		ROCE:              f.roce(),
		DebtEquity:        derive(f.DebtEquity, f.TotalDebt, f.Equity, growth.DebtEquity),
		CurrentRatio:      derive(f.CurrentRatio, f.CurrentAssets, f.CurrentLiabilities, growth.CurrentRatio),
		InterestCoverage:  derive(f.InterestCoverage, f.EBIT, f.InterestExpense, growth.InterestCoverage),
		OPM:               derive(f.OPM, f.OperatingIncome, f.Revenue, growth.OPM),
		NPM:               derive(f.NPM, f.NetProfit, f.Revenue, growth.NPM),
	}
	m.OCFToNetProfit = f.ocfToNetProfit()
	m.AltmanZScore = f.altmanZ()
	return m
}

// derive falls back to ratio(a, b) when the vendor cell is nil. An
// undefined ratio (zero denominator) stays NULL.
func derive(existing, a, b *decimal.Decimal, ratio func(float64, float64) (float64, bool)) *decimal.Decimal {
	if existing != nil {
		return existing
	}
	if a == nil || b == nil {
		return nil
	}
	v, ok := ratio(a.InexactFloat64(), b.InexactFloat64())
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(v)
	return &d
}

// roce derives return on capital employed from EBIT over total assets
// minus current liabilities.
func (f FundamentalRow) roce() *decimal.Decimal {
	if f.ROCE != nil {
		return f.ROCE
	}
	if f.EBIT == nil || f.TotalAssets == nil || f.CurrentLiabilities == nil {
		return nil
	}
	capitalEmployed := f.TotalAssets.InexactFloat64() - f.CurrentLiabilities.InexactFloat64()
	v, ok := growth.ROCE(f.EBIT.InexactFloat64(), capitalEmployed)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(v)
	return &d
}

// ocfToNetProfit derives the earnings-quality ratio when both inputs are
// present; a missing or zero-profit period leaves the column NULL.
func (f FundamentalRow) ocfToNetProfit() *decimal.Decimal {
	if f.OperatingCashFlow == nil || f.NetProfit == nil {
		return nil
	}
	v, ok := growth.OCFToNetProfit(f.OperatingCashFlow.InexactFloat64(), f.NetProfit.InexactFloat64())
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(v)
	return &d
}

// altmanZ derives the Z-Score from the raw balance-sheet components. Any
// missing component leaves the score NULL rather than scoring on partial
// data.
func (f FundamentalRow) altmanZ() *decimal.Decimal {
	for _, c := range []*decimal.Decimal{
		f.WorkingCapital, f.RetainedEarnings, f.EBIT,
		f.MarketCap, f.Revenue, f.TotalAssets, f.TotalLiabilities,
	} {
		if c == nil {
			return nil
		}
	}
	z, ok := growth.AltmanZ(
		f.WorkingCapital.InexactFloat64(),
		f.RetainedEarnings.InexactFloat64(),
		f.EBIT.InexactFloat64(),
		f.MarketCap.InexactFloat64(),
		f.Revenue.InexactFloat64(),
		f.TotalAssets.InexactFloat64(),
		f.TotalLiabilities.InexactFloat64(),
	)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(z)
	return &d
}

// EODRow is one daily OHLCV bar from the equity-prices table.
type EODRow struct {
	Ticker string
	Date   time.Time
	Open   *decimal.Decimal
	High   *decimal.Decimal
	Low    *decimal.Decimal
	Close  *decimal.Decimal
	Volume *int64
}

// Complete reports whether the bar has every price component; partial
// bars are skipped rather than filled with zeros.
func (e EODRow) Complete() bool {
	return e.Open != nil && e.High != nil && e.Low != nil && e.Close != nil
}

func (e EODRow) Model() models.DailyPrice {
	var volume int64
	if e.Volume != nil {
		volume = *e.Volume
	}
	return models.DailyPrice{
		Ticker: e.Ticker,
		Date:   e.Date,
		Open:   *e.Open,
		High:   *e.High,
		Low:    *e.Low,
		Close:  *e.Close,
		Volume: volume,
	}
}
