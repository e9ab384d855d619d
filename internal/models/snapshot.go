package models

import "time"

// PricePoint is one bar of a price series. Series are chronological with
// no duplicate dates; indicator windows count points, not calendar days.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// FinancialPeriod is one fiscal year of a company's financial series.
// Nil metric values are unknown, not zero.
type FinancialPeriod struct {
	PeriodEnd         time.Time `json:"period_end"`
	Revenue           *float64  `json:"revenue"`
	NetProfit         *float64  `json:"net_profit"`
	OperatingCashFlow *float64  `json:"operating_cash_flow"`
}

// Snapshot is everything known about one stock as of a date: identity
// fields plus a flat metric-name to value mapping. A metric absent from
// the map is unknown; callers must never coalesce absence to zero.
type Snapshot struct {
	Ticker      string             `json:"ticker"`
	CompanyName string             `json:"company_name"`
	Sector      string             `json:"sector"`
	Industry    string             `json:"industry"`
	Metrics     map[string]float64 `json:"metrics"`
}

func NewSnapshot(ticker, name, sector, industry string) Snapshot {
	return Snapshot{
		Ticker:      ticker,
		CompanyName: name,
		Sector:      sector,
		Industry:    industry,
		Metrics:     make(map[string]float64),
	}
}

// Metric returns the named value and whether it is known.
func (s Snapshot) Metric(name string) (float64, bool) {
	v, ok := s.Metrics[name]
	return v, ok
}

func (s Snapshot) SetMetric(name string, value float64) {
	s.Metrics[name] = value
}

// SetFlag stores a boolean signal as 1/0 so criteria can reference it
// with numeric operators (e.g. macd_bullish = 1).
func (s Snapshot) SetFlag(name string, value bool) {
	if value {
		s.Metrics[name] = 1
	} else {
		s.Metrics[name] = 0
	}
}
