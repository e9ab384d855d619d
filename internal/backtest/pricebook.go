package backtest

import (
	"sort"
	"time"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// PriceBook holds chronological price series keyed by ticker, supplied by
// the price-series provider for the backtest window.
type PriceBook map[string][]models.PricePoint

// CloseOnOrBefore returns the close on the given date, or the nearest
// prior trading day when the date itself is not a trading day. It never
// falls forward to a future day; that would introduce look-ahead bias.
func (b PriceBook) CloseOnOrBefore(ticker string, date time.Time) (float64, bool) {
	series := b[ticker]
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(date)
	})
	if idx == 0 {
		return 0, false
	}
	return series[idx-1].Close, true
}
