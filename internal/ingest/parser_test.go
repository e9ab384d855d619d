package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResponse(columns []string, rows ...[]interface{}) *Response {
	resp := &Response{}
	for _, name := range columns {
		resp.Datatable.Columns = append(resp.Datatable.Columns, Column{Name: name})
	}
	resp.Datatable.Data = rows
	return resp
}

func TestParseTickers(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "name", "sector", "industry", "isdelisted"},
		[]interface{}{"AAPL", "Apple Inc", "Technology", "Hardware", "N"},
		[]interface{}{"OLDCO", "Old Co", "Energy", "", "Y"},
		[]interface{}{"", "No Ticker", "", "", "N"},
	)

	rows := ParseTickers(resp)
	require.Len(t, rows, 2)

	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.False(t, rows[0].IsDelisted)
	assert.True(t, rows[1].IsDelisted)

	company := rows[0].Model()
	assert.Equal(t, "Apple Inc", company.Name)
	assert.True(t, company.Active)
	assert.False(t, rows[1].Model().Active)
}

func TestParseFundamentals(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "calendardate", "revenue", "netinc", "roe"},
		[]interface{}{"AAPL", "2023-09-30", "2023-12-31", 383285.0, 96995.0, nil},
		// No report period; the calendar date stands in.
		[]interface{}{"MSFT", nil, "2023-06-30", 211915.0, 72361.0, 0.38},
		// No date at all; dropped.
		[]interface{}{"NODT", nil, nil, 1.0, 1.0, nil},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), rows[0].PeriodEnd)
	require.NotNil(t, rows[0].Revenue)
	assert.Equal(t, "383285", rows[0].Revenue.String())
	assert.Nil(t, rows[0].ROE)

	assert.Equal(t, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), rows[1].PeriodEnd)
	// The vendor's 0.38 fraction is stored as 38 percent.
	require.NotNil(t, rows[1].ROE)
	assert.InDelta(t, 38, rows[1].ROE.InexactFloat64(), 1e-9)
}

func TestParseFundamentalsNormalizesMargins(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "roe", "roic", "opmargin", "netmargin", "de"},
		[]interface{}{"AAPL", "2023-09-30", 0.25, 0.30, 0.20, 0.15, 1.5},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 1)

	assert.InDelta(t, 25, rows[0].ROE.InexactFloat64(), 1e-9)
	assert.InDelta(t, 30, rows[0].ROCE.InexactFloat64(), 1e-9)
	assert.InDelta(t, 20, rows[0].OPM.InexactFloat64(), 1e-9)
	assert.InDelta(t, 15, rows[0].NPM.InexactFloat64(), 1e-9)
	// Debt/equity is already a plain ratio and is not scaled.
	assert.InDelta(t, 1.5, rows[0].DebtEquity.InexactFloat64(), 1e-9)
}

func TestFundamentalRowDerivesMissingRatios(t *testing.T) {
	// No vendor ratio cells at all; everything must come from the raw
	// statement components.
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "revenue", "netinc", "marketcap",
			"equity", "debt", "assets", "assetsc", "liabilitiesc",
			"ebit", "intexp", "ev", "ebitda", "opinc"},
		[]interface{}{"AAPL", "2023-09-30", 1000.0, 100.0, 3000.0,
			500.0, 250.0, 2000.0, 600.0, 400.0,
			160.0, 20.0, 3200.0, 400.0, 150.0},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 1)
	m := rows[0].Model()

	require.NotNil(t, m.ROE)
	assert.InDelta(t, 20, m.ROE.InexactFloat64(), 1e-9) // 100/500 as a percentage
	require.NotNil(t, m.ROCE)
	assert.InDelta(t, 10, m.ROCE.InexactFloat64(), 1e-9) // 160/(2000-400)
	require.NotNil(t, m.DebtEquity)
	assert.InDelta(t, 0.5, m.DebtEquity.InexactFloat64(), 1e-9)
	require.NotNil(t, m.CurrentRatio)
	assert.InDelta(t, 1.5, m.CurrentRatio.InexactFloat64(), 1e-9)
	require.NotNil(t, m.InterestCoverage)
	assert.InDelta(t, 8, m.InterestCoverage.InexactFloat64(), 1e-9)
	require.NotNil(t, m.PriceToBook)
	assert.InDelta(t, 6, m.PriceToBook.InexactFloat64(), 1e-9)
	require.NotNil(t, m.PriceToEarnings)
	assert.InDelta(t, 30, m.PriceToEarnings.InexactFloat64(), 1e-9)
	require.NotNil(t, m.EVEBITDA)
	assert.InDelta(t, 8, m.EVEBITDA.InexactFloat64(), 1e-9)
	require.NotNil(t, m.OPM)
	assert.InDelta(t, 15, m.OPM.InexactFloat64(), 1e-9)
	require.NotNil(t, m.NPM)
	assert.InDelta(t, 10, m.NPM.InexactFloat64(), 1e-9)
}

func TestFundamentalRowVendorValueWinsOverDerivation(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "roe", "netinc", "equity"},
		[]interface{}{"AAPL", "2023-09-30", 0.40, 100.0, 500.0},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 1)
	m := rows[0].Model()

	// The vendor reported 40%; the 20% derivation must not replace it.
	require.NotNil(t, m.ROE)
	assert.InDelta(t, 40, m.ROE.InexactFloat64(), 1e-9)
}

func TestFundamentalRowZeroDenominatorStaysNull(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "netinc", "equity", "ebit", "intexp"},
		[]interface{}{"AAPL", "2023-09-30", 100.0, 0.0, 160.0, 0.0},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 1)
	m := rows[0].Model()

	assert.Nil(t, m.ROE)
	assert.Nil(t, m.InterestCoverage)
}

func TestFundamentalRowDerivesQualityScores(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "netinc", "ncfo", "revenue",
			"marketcap", "workingcapital", "retearn", "ebit", "assets", "liabilities"},
		[]interface{}{"AAPL", "2023-09-30", 100.0, 120.0, 100.0,
			100.0, 100.0, 100.0, 100.0, 100.0, 100.0},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 1)

	m := rows[0].Model()
	require.NotNil(t, m.OCFToNetProfit)
	assert.InDelta(t, 1.2, m.OCFToNetProfit.InexactFloat64(), 1e-9)
	// All component ratios are 1, so Z is the sum of the weights.
	require.NotNil(t, m.AltmanZScore)
	assert.InDelta(t, 7.5, m.AltmanZScore.InexactFloat64(), 1e-9)
}

func TestFundamentalRowMissingComponentsLeaveScoresNull(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "reportperiod", "netinc", "revenue"},
		[]interface{}{"AAPL", "2023-09-30", 100.0, 500.0},
	)

	rows := ParseFundamentals(resp)
	require.Len(t, rows, 1)

	m := rows[0].Model()
	assert.Nil(t, m.OCFToNetProfit)
	assert.Nil(t, m.AltmanZScore)
}

func TestParseEODDropsIncompleteBars(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "date", "open", "high", "low", "close", "volume"},
		[]interface{}{"AAPL", "2024-01-02", 187.15, 188.44, 183.89, 185.64, 82488700.0},
		// Missing close; the bar is unusable.
		[]interface{}{"AAPL", "2024-01-03", 184.22, 185.88, 183.43, nil, 58414500.0},
	)

	rows := ParseEOD(resp)
	require.Len(t, rows, 1)

	price := rows[0].Model()
	assert.Equal(t, "AAPL", price.Ticker)
	assert.Equal(t, "185.64", price.Close.String())
	assert.Equal(t, int64(82488700), price.Volume)
}

func TestRecordDateFormats(t *testing.T) {
	resp := makeResponse(
		[]string{"ticker", "date", "open", "high", "low", "close"},
		[]interface{}{"AAPL", "2024-01-02T15:04:05.000Z", 1.0, 1.0, 1.0, 1.0},
	)

	rows := ParseEOD(resp)
	require.Len(t, rows, 1)
	assert.Equal(t, 2024, rows[0].Date.Year())
}
