// Package indicators derives technical indicators and boolean signals
// from a chronological price series. All functions are pure: given the
// same series they always produce the same values, so results are safe to
// recompute on demand and to evaluate concurrently across tickers.
package indicators

import (
	"math"

	"github.com/mauv0809/steady-garbanzo/internal/models"
)

const (
	fastPeriod   = 12
	slowPeriod   = 26
	signalPeriod = 9
	atrPeriod    = 14
	chopPeriod   = 14

	choppyThreshold   = 61.8
	trendingThreshold = 38.2
)

// Set holds the indicator values for one ticker. A nil pointer means the
// input series was too short for that field (insufficient data), which is
// distinct from zero.
type Set struct {
	EMA20         *float64 `json:"ema_20"`
	EMA50         *float64 `json:"ema_50"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	ATR14         *float64 `json:"atr_14"`
	Choppiness    *float64 `json:"choppiness_index"`

	EMABullish  bool `json:"ema_bullish"`
	EMABearish  bool `json:"ema_bearish"`
	MACDBullish bool `json:"macd_bullish"`
	MACDBearish bool `json:"macd_bearish"`
	Trending    bool `json:"trending"`
	Choppy      bool `json:"choppy"`

	// Whether the boolean signals above could be evaluated at all. A
	// false flag with known=false is "unknown", not "no signal".
	emaKnown   bool
	crossKnown bool
}

// Compute calculates the full indicator set for a chronological series.
// Windows are counted in available points, not calendar days, so gaps in
// trading days do not shift anything.
func Compute(series []models.PricePoint) Set {
	var s Set
	n := len(series)
	closes := make([]float64, n)
	for i, p := range series {
		closes[i] = p.Close
	}

	if e20 := ema(closes, 20); e20 != nil {
		s.EMA20 = ptr(e20[len(e20)-1])
		if e50 := ema(closes, 50); e50 != nil {
			s.EMA50 = ptr(e50[len(e50)-1])
			if len(e20) >= 2 {
				s.emaKnown = true
				last := closes[n-1]
				cur, prev := e20[len(e20)-1], e20[len(e20)-2]
				s.EMABullish = last > cur && cur > *s.EMA50 && cur > prev
				s.EMABearish = last < cur && cur < *s.EMA50 && cur < prev
			}
		}
	}

	if n >= slowPeriod {
		e12 := ema(closes, fastPeriod)
		e26 := ema(closes, slowPeriod)
		macd := make([]float64, len(e26))
		for i := range e26 {
			macd[i] = e12[i+slowPeriod-fastPeriod] - e26[i]
		}
		s.MACD = ptr(macd[len(macd)-1])

		// The signal line needs a full seed window of MACD values on
		// top of the slow EMA; anything shorter is reported as
		// undefined rather than a noisy partial value.
		if n >= slowPeriod+signalPeriod {
			sig := ema(macd, signalPeriod)
			s.MACDSignal = ptr(sig[len(sig)-1])
			s.MACDHistogram = ptr(*s.MACD - *s.MACDSignal)
			if len(sig) >= 2 {
				s.crossKnown = true
				prevHist := macd[len(macd)-2] - sig[len(sig)-2]
				curHist := *s.MACDHistogram
				s.MACDBullish = prevHist <= 0 && curHist > 0
				s.MACDBearish = prevHist >= 0 && curHist < 0
			}
		}
	}

	tr := trueRanges(series)

	if len(tr) >= atrPeriod {
		var sum float64
		for _, v := range tr[:atrPeriod] {
			sum += v
		}
		atr := sum / atrPeriod
		for _, v := range tr[atrPeriod:] {
			atr = (atr*(atrPeriod-1) + v) / atrPeriod
		}
		s.ATR14 = ptr(atr)
	}

	if len(tr) >= chopPeriod {
		if ci, ok := choppiness(series, tr); ok {
			s.Choppiness = ptr(ci)
			s.Trending = ci <= trendingThreshold
			s.Choppy = ci >= choppyThreshold
		}
	}

	return s
}

// ApplyTo merges the computed values into a snapshot. Undefined fields
// are left out entirely so the criterion evaluator sees them as unknown.
func (s Set) ApplyTo(snap models.Snapshot) {
	setIfKnown(snap, "ema_20", s.EMA20)
	setIfKnown(snap, "ema_50", s.EMA50)
	setIfKnown(snap, "macd", s.MACD)
	setIfKnown(snap, "macd_signal", s.MACDSignal)
	setIfKnown(snap, "macd_histogram", s.MACDHistogram)
	setIfKnown(snap, "atr_14", s.ATR14)
	setIfKnown(snap, "choppiness_index", s.Choppiness)

	if s.emaKnown {
		snap.SetFlag("ema_bullish", s.EMABullish)
		snap.SetFlag("ema_bearish", s.EMABearish)
	}
	if s.crossKnown {
		snap.SetFlag("macd_bullish", s.MACDBullish)
		snap.SetFlag("macd_bearish", s.MACDBearish)
	}
	if s.Choppiness != nil {
		snap.SetFlag("trending", s.Trending)
		snap.SetFlag("choppy", s.Choppy)
	}
}

// ema returns the exponential moving average series for the given period,
// seeded with the simple mean of the first period values. result[i]
// corresponds to values[i+period-1]. Returns nil when the input is too
// short.
func ema(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	out := make([]float64, 0, len(values)-period+1)
	prev := sum / float64(period)
	out = append(out, prev)

	alpha := 2.0 / float64(period+1)
	for _, v := range values[period:] {
		prev = v*alpha + prev*(1-alpha)
		out = append(out, prev)
	}
	return out
}

// trueRanges returns the true range series; tr[i] corresponds to
// series[i+1] since the first bar has no previous close.
func trueRanges(series []models.PricePoint) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		h, l, pc := series[i].High, series[i].Low, series[i-1].Close
		tr := h - l
		if d := math.Abs(h - pc); d > tr {
			tr = d
		}
		if d := math.Abs(l - pc); d > tr {
			tr = d
		}
		out = append(out, tr)
	}
	return out
}

// choppiness computes the Choppiness Index over the most recent window.
// A zero high-low range across the window makes the index undefined.
func choppiness(series []models.PricePoint, tr []float64) (float64, bool) {
	var trSum float64
	for _, v := range tr[len(tr)-chopPeriod:] {
		trSum += v
	}

	window := series[len(series)-chopPeriod:]
	high, low := window[0].High, window[0].Low
	for _, p := range window[1:] {
		if p.High > high {
			high = p.High
		}
		if p.Low < low {
			low = p.Low
		}
	}

	if high-low <= 0 {
		return 0, false
	}

	ci := 100 * math.Log10(trSum/(high-low)) / math.Log10(chopPeriod)
	return math.Min(100, math.Max(0, ci)), true
}

func setIfKnown(snap models.Snapshot, name string, v *float64) {
	if v != nil {
		snap.SetMetric(name, *v)
	}
}

func ptr(v float64) *float64 {
	return &v
}
