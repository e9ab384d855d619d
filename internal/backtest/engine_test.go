package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mauv0809/steady-garbanzo/internal/models"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
)

// memHistory is an in-memory HistoryStore for tests.
type memHistory struct {
	runs      []Run
	appendErr error
}

func (m *memHistory) AppendBacktestRun(_ context.Context, run *Run) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memHistory) ListBacktestRuns(_ context.Context, screenName string) ([]Run, error) {
	var out []Run
	for _, run := range m.runs {
		if screenName == "" || run.ScreenName == screenName {
			out = append(out, run)
		}
	}
	return out, nil
}

var passROE = &screener.Definition{
	Name:     "high roe",
	Logic:    screener.LogicAnd,
	Criteria: []screener.Criterion{{Field: "roe", Operator: screener.OpGreater, Value: 15}},
}

func snapWithROE(ticker string, roe float64) models.Snapshot {
	snap := models.NewSnapshot(ticker, ticker+" Ltd", "Tech", "")
	snap.SetMetric("roe", roe)
	return snap
}

func baseRequest() Request {
	return Request{
		Definition:        passROE,
		StartDate:         day(2024, 1, 1),
		EndDate:           day(2024, 6, 30),
		HoldingPeriodDays: 30,
	}
}

func TestRunMeasuresForwardReturn(t *testing.T) {
	history := &memHistory{}
	engine := NewEngine(screener.NewEngine(), history)

	prices := PriceBook{
		"AAA": {
			bar(day(2024, 1, 1), 100),
			bar(day(2024, 1, 31), 120),
		},
	}

	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, run.State)
	assert.Equal(t, 1, run.TotalScreened)
	assert.Equal(t, 1, run.StocksPassed)
	require.Len(t, run.Positions, 1)

	pos := run.Positions[0]
	assert.Equal(t, 100.0, pos.EntryPrice)
	assert.Equal(t, 120.0, pos.ExitPrice)
	assert.InDelta(t, 20.0, pos.ReturnPct, 1e-9)

	assert.Equal(t, 1, run.WinningCount)
	assert.Equal(t, 0, run.LosingCount)
	require.NotNil(t, run.AverageReturn)
	assert.InDelta(t, 20.0, *run.AverageReturn, 1e-9)
	require.NotNil(t, run.MedianReturn)
	assert.InDelta(t, 20.0, *run.MedianReturn, 1e-9)
	require.NotNil(t, run.StdDevReturn)
	assert.InDelta(t, 0.0, *run.StdDevReturn, 1e-9)
	require.NotNil(t, run.BestPerformer)
	assert.Equal(t, "AAA", run.BestPerformer.Ticker)

	// The run is persisted exactly once.
	require.Len(t, history.runs, 1)
	assert.Equal(t, run.ID, history.runs[0].ID)
}

func TestRunRecordsFailuresAndAggregatesRest(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), &memHistory{})

	// BBB matched the screen but has no price data at all.
	prices := PriceBook{
		"AAA": {
			bar(day(2024, 1, 1), 100),
			bar(day(2024, 1, 31), 110),
		},
	}

	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25), snapWithROE("BBB", 30)}, prices)
	require.NoError(t, err)

	assert.Equal(t, 2, run.StocksPassed)
	require.Len(t, run.Positions, 1)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, "BBB", run.Failures[0].Ticker)

	require.NotNil(t, run.AverageReturn)
	assert.InDelta(t, 10.0, *run.AverageReturn, 1e-9)
}

func TestRunZeroEntryPriceIsFailure(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	prices := PriceBook{"AAA": {bar(day(2024, 1, 1), 0), bar(day(2024, 1, 31), 50)}}
	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)
	require.NoError(t, err)

	assert.Empty(t, run.Positions)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, "zero entry price", run.Failures[0].Reason)
}

func TestRunNoMeasurableTickersHasNilAggregates(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25)}, PriceBook{})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, run.State)
	assert.Nil(t, run.AverageReturn)
	assert.Nil(t, run.MedianReturn)
	assert.Nil(t, run.StdDevReturn)
	assert.Nil(t, run.BestPerformer)
	assert.Nil(t, run.WorstPerformer)
}

func TestRunEntryFallsBackToPriorTradingDay(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	// Start on a Saturday: Friday's close is the entry.
	req := baseRequest()
	req.StartDate = day(2024, 1, 6)

	prices := PriceBook{
		"AAA": {
			bar(day(2024, 1, 5), 100),
			bar(day(2024, 2, 5), 105),
		},
	}

	run, err := engine.Run(context.Background(), req,
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)
	require.NoError(t, err)

	require.Len(t, run.Positions, 1)
	assert.Equal(t, 100.0, run.Positions[0].EntryPrice)
	assert.Equal(t, 105.0, run.Positions[0].ExitPrice)
}

func TestRunZeroReturnCountsAsLosing(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	prices := PriceBook{
		"AAA": {bar(day(2024, 1, 1), 100), bar(day(2024, 1, 31), 100)},
	}
	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)
	require.NoError(t, err)

	assert.Equal(t, 0, run.WinningCount)
	assert.Equal(t, 1, run.LosingCount)
}

func TestRunMedianEvenCount(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	prices := PriceBook{
		"AAA": {bar(day(2024, 1, 1), 100), bar(day(2024, 1, 31), 110)},
		"BBB": {bar(day(2024, 1, 1), 100), bar(day(2024, 1, 31), 130)},
	}
	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25), snapWithROE("BBB", 25)}, prices)
	require.NoError(t, err)

	require.NotNil(t, run.MedianReturn)
	assert.InDelta(t, 20.0, *run.MedianReturn, 1e-9)
	require.NotNil(t, run.BestPerformer)
	assert.Equal(t, "BBB", run.BestPerformer.Ticker)
	require.NotNil(t, run.WorstPerformer)
	assert.Equal(t, "AAA", run.WorstPerformer.Ticker)
}

func TestRunExitCappedAtEndDate(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	req := baseRequest()
	req.EndDate = day(2024, 1, 15)

	prices := PriceBook{
		"AAA": {
			bar(day(2024, 1, 1), 100),
			bar(day(2024, 1, 15), 104),
			bar(day(2024, 1, 31), 120),
		},
	}
	run, err := engine.Run(context.Background(), req,
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)
	require.NoError(t, err)

	require.Len(t, run.Positions, 1)
	assert.Equal(t, 104.0, run.Positions[0].ExitPrice)
	assert.Equal(t, day(2024, 1, 15), run.Positions[0].ExitDate)
}

func TestRunValidation(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	req := baseRequest()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	_, err := engine.Run(context.Background(), req, nil, PriceBook{})
	var ve *screener.ValidationError
	require.True(t, errors.As(err, &ve))

	req = baseRequest()
	req.HoldingPeriodDays = 0
	_, err = engine.Run(context.Background(), req, nil, PriceBook{})
	require.True(t, errors.As(err, &ve))
}

func TestRunUnknownScreenKey(t *testing.T) {
	engine := NewEngine(screener.NewEngine(), nil)

	req := baseRequest()
	req.Definition = nil
	req.ScreenKey = "momentum"
	_, err := engine.Run(context.Background(), req, nil, PriceBook{})
	assert.ErrorIs(t, err, screener.ErrScreenNotFound)
}

func TestRunPersistFailureMarksRunFailed(t *testing.T) {
	history := &memHistory{appendErr: errors.New("disk full")}
	engine := NewEngine(screener.NewEngine(), history)

	prices := PriceBook{"AAA": {bar(day(2024, 1, 1), 100), bar(day(2024, 1, 31), 110)}}
	run, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)

	require.Error(t, err)
	assert.Equal(t, StateFailed, run.State)
}

func TestCompareScreens(t *testing.T) {
	history := &memHistory{}
	engine := NewEngine(screener.NewEngine(), history)

	prices := PriceBook{"AAA": {bar(day(2024, 1, 1), 100), bar(day(2024, 1, 31), 110)}}
	universe := []models.Snapshot{snapWithROE("AAA", 25)}

	_, err := engine.Run(context.Background(), baseRequest(), universe, prices)
	require.NoError(t, err)
	_, err = engine.Run(context.Background(), baseRequest(), universe, prices)
	require.NoError(t, err)

	comparisons, err := engine.CompareScreens(context.Background(),
		[]string{"high roe", "no such screen"}, day(2023, 1, 1), day(2025, 1, 1))
	require.NoError(t, err)

	// Screens with no qualifying runs are omitted.
	require.Len(t, comparisons, 1)
	assert.Equal(t, "high roe", comparisons[0].ScreenName)
	assert.Equal(t, 2, comparisons[0].NumBacktests)
	assert.InDelta(t, 10.0, comparisons[0].AvgReturn, 1e-9)
	assert.InDelta(t, 1.0, comparisons[0].AvgStocksPassed, 1e-9)
}

func TestCompareScreensWindowFilter(t *testing.T) {
	history := &memHistory{}
	engine := NewEngine(screener.NewEngine(), history)

	prices := PriceBook{"AAA": {bar(day(2024, 1, 1), 100), bar(day(2024, 1, 31), 110)}}
	_, err := engine.Run(context.Background(), baseRequest(),
		[]models.Snapshot{snapWithROE("AAA", 25)}, prices)
	require.NoError(t, err)

	comparisons, err := engine.CompareScreens(context.Background(),
		[]string{"high roe"}, day(2025, 1, 1), day(2025, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, comparisons)
}
