package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Company struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector"`
	Industry  string    `json:"industry"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fundamental is one annual reporting period for a company as stored in
// the fundamentals table. Metric columns are pointers: a NULL column means
// the value is unknown, which is distinct from zero everywhere downstream.
// Return and margin columns (ROE, ROCE, OPM, NPM) are percentages, not
// fractions; the ingest parser normalizes vendor fractions on the way in.
type Fundamental struct {
	ID                int              `json:"id"`
	Ticker            string           `json:"ticker"`
	PeriodEnd         time.Time        `json:"period_end"`
	Revenue           *decimal.Decimal `json:"revenue"`
	NetProfit         *decimal.Decimal `json:"net_profit"`
	OperatingCashFlow *decimal.Decimal `json:"operating_cash_flow"`
	MarketCap         *decimal.Decimal `json:"market_cap"`
	Price             *decimal.Decimal `json:"price"`
	PriceToBook       *decimal.Decimal `json:"price_to_book"`
	PriceToEarnings   *decimal.Decimal `json:"price_to_earnings"`
	EVEBITDA          *decimal.Decimal `json:"ev_ebitda"`
	ROE               *decimal.Decimal `json:"roe"`
	ROCE              *decimal.Decimal `json:"roce"`
	DebtEquity        *decimal.Decimal `json:"debt_equity"`
	CurrentRatio      *decimal.Decimal `json:"current_ratio"`
	InterestCoverage  *decimal.Decimal `json:"interest_coverage"`
	OPM               *decimal.Decimal `json:"opm"`
	NPM               *decimal.Decimal `json:"npm"`
	AltmanZScore      *decimal.Decimal `json:"altman_z_score"`
	OCFToNetProfit    *decimal.Decimal `json:"ocf_to_net_profit"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type DailyPrice struct {
	ID     int             `json:"id"`
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}
