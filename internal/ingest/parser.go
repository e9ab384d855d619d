package ingest

import (
	"time"

	"github.com/shopspring/decimal"
)

// record wraps one data row together with the column index so typed
// accessors can pull values by column name. Every accessor tolerates
// missing columns and mistyped cells by reporting absence, never zero.
type record struct {
	idx map[string]int
	row []interface{}
}

func columnIndex(columns []Column) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, col := range columns {
		idx[col.Name] = i
	}
	return idx
}

func (r record) cell(col string) interface{} {
	i, ok := r.idx[col]
	if !ok || i >= len(r.row) {
		return nil
	}
	return r.row[i]
}

func (r record) str(col string) string {
	if s, ok := r.cell(col).(string); ok {
		return s
	}
	return ""
}

func (r record) boolean(col string) bool {
	switch v := r.cell(col).(type) {
	case bool:
		return v
	case string:
		return v == "Y" || v == "true" || v == "1"
	case float64:
		return v != 0
	}
	return false
}

func (r record) dec(col string) *decimal.Decimal {
	switch v := r.cell(col).(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

// hundred scales vendor fractions to the percentage unit the ratio
// columns store (roe 0.38 becomes 38).
var hundred = decimal.NewFromInt(100)

func (r record) pct(col string) *decimal.Decimal {
	d := r.dec(col)
	if d == nil {
		return nil
	}
	v := d.Mul(hundred)
	return &v
}

func (r record) integer(col string) *int64 {
	switch v := r.cell(col).(type) {
	case float64:
		n := int64(v)
		return &n
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	}
	return nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
}

func (r record) date(col string) *time.Time {
	s, ok := r.cell(col).(string)
	if !ok || s == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseTickers parses a tickers-table response into typed rows.
func ParseTickers(resp *Response) []TickerRow {
	idx := columnIndex(resp.Datatable.Columns)
	rows := make([]TickerRow, 0, len(resp.Datatable.Data))

	for _, raw := range resp.Datatable.Data {
		rec := record{idx: idx, row: raw}
		tr := TickerRow{
			Ticker:     rec.str("ticker"),
			Name:       rec.str("name"),
			Sector:     rec.str("sector"),
			Industry:   rec.str("industry"),
			IsDelisted: rec.boolean("isdelisted"),
		}
		if tr.Ticker != "" {
			rows = append(rows, tr)
		}
	}

	return rows
}

// ParseFundamentals parses a fundamentals-table response into annual
// periods. Rows without a report period are skipped.
func ParseFundamentals(resp *Response) []FundamentalRow {
	idx := columnIndex(resp.Datatable.Columns)
	rows := make([]FundamentalRow, 0, len(resp.Datatable.Data))

	for _, raw := range resp.Datatable.Data {
		rec := record{idx: idx, row: raw}
		periodEnd := rec.date("reportperiod")
		if periodEnd == nil {
			periodEnd = rec.date("calendardate")
		}
		if periodEnd == nil || rec.str("ticker") == "" {
			continue
		}

		rows = append(rows, FundamentalRow{
			Ticker:            rec.str("ticker"),
			PeriodEnd:         *periodEnd,
			Revenue:           rec.dec("revenue"),
			NetProfit:         rec.dec("netinc"),
			OperatingCashFlow: rec.dec("ncfo"),
			MarketCap:         rec.dec("marketcap"),
			Price:             rec.dec("price"),
			PriceToBook:       rec.dec("pb"),
			PriceToEarnings:   rec.dec("pe"),
			EVEBITDA:          rec.dec("evebitda"),
			// The vendor reports returns and margins as fractions;
			// ratio columns store percentages.
			ROE:                rec.pct("roe"),
			ROCE:               rec.pct("roic"),
			DebtEquity:         rec.dec("de"),
			CurrentRatio:       rec.dec("currentratio"),
			InterestCoverage:   rec.dec("intcov"),
			OPM:                rec.pct("opmargin"),
			NPM:                rec.pct("netmargin"),
			WorkingCapital:     rec.dec("workingcapital"),
			RetainedEarnings:   rec.dec("retearn"),
			EBIT:               rec.dec("ebit"),
			TotalAssets:        rec.dec("assets"),
			TotalLiabilities:   rec.dec("liabilities"),
			Equity:             rec.dec("equity"),
			TotalDebt:          rec.dec("debt"),
			CurrentAssets:      rec.dec("assetsc"),
			CurrentLiabilities: rec.dec("liabilitiesc"),
			InterestExpense:    rec.dec("intexp"),
			EnterpriseValue:    rec.dec("ev"),
			EBITDA:             rec.dec("ebitda"),
			OperatingIncome:    rec.dec("opinc"),
		})
	}

	return rows
}

// ParseEOD parses an equity-prices response into daily bars. Bars with a
// missing price component are dropped.
func ParseEOD(resp *Response) []EODRow {
	idx := columnIndex(resp.Datatable.Columns)
	rows := make([]EODRow, 0, len(resp.Datatable.Data))

	for _, raw := range resp.Datatable.Data {
		rec := record{idx: idx, row: raw}
		date := rec.date("date")
		if date == nil || rec.str("ticker") == "" {
			continue
		}

		er := EODRow{
			Ticker: rec.str("ticker"),
			Date:   *date,
			Open:   rec.dec("open"),
			High:   rec.dec("high"),
			Low:    rec.dec("low"),
			Close:  rec.dec("close"),
			Volume: rec.integer("volume"),
		}
		if er.Complete() {
			rows = append(rows, er)
		}
	}

	return rows
}
