package backtest

import (
	"context"
	"time"
)

// ScreenComparison aggregates a screen's historical backtest runs.
type ScreenComparison struct {
	ScreenName      string  `json:"screen_name"`
	NumBacktests    int     `json:"num_backtests"`
	AvgReturn       float64 `json:"avg_return"`
	AvgMedianReturn float64 `json:"avg_median_return"`
	AvgStocksPassed float64 `json:"avg_stocks_passed"`
}

// CompareScreens summarizes the stored runs of each named screen whose
// start date falls inside [start, end]. Screens with no qualifying runs
// are omitted.
func (e *Engine) CompareScreens(ctx context.Context, screenNames []string, start, end time.Time) ([]ScreenComparison, error) {
	out := make([]ScreenComparison, 0, len(screenNames))

	for _, name := range screenNames {
		runs, err := e.history.ListBacktestRuns(ctx, name)
		if err != nil {
			return nil, err
		}

		var sumReturn, sumMedian, sumPassed float64
		count := 0
		for _, run := range runs {
			if run.StartDate.Before(start) || run.StartDate.After(end) {
				continue
			}
			if run.AverageReturn == nil || run.MedianReturn == nil {
				continue
			}
			sumReturn += *run.AverageReturn
			sumMedian += *run.MedianReturn
			sumPassed += float64(run.StocksPassed)
			count++
		}

		if count == 0 {
			continue
		}
		out = append(out, ScreenComparison{
			ScreenName:      name,
			NumBacktests:    count,
			AvgReturn:       sumReturn / float64(count),
			AvgMedianReturn: sumMedian / float64(count),
			AvgStocksPassed: sumPassed / float64(count),
		})
	}

	return out, nil
}
