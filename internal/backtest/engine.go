// Package backtest simulates running a screen at a historical date and
// measures the forward return of every matched ticker over a fixed
// holding period. Given the same snapshots-as-of-start and price series a
// run is fully reproducible.
package backtest

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/steady-garbanzo/internal/models"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
)

// State tracks a run through its lifecycle. Completed and Failed are
// terminal; Failed can be entered from any state.
type State string

const (
	StateValidated  State = "validated"
	StateEvaluating State = "evaluating"
	StateMeasuring  State = "measuring"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Request describes one backtest. Exactly one of ScreenKey or Definition
// selects the screen.
type Request struct {
	ScreenKey         string               `json:"screen_key,omitempty"`
	Definition        *screener.Definition `json:"definition,omitempty"`
	StartDate         time.Time            `json:"start_date"`
	EndDate           time.Time            `json:"end_date"`
	HoldingPeriodDays int                  `json:"holding_period_days"`
	Filters           screener.Filters     `json:"filters"`
}

// Position is one measured holding in a run.
type Position struct {
	Ticker      string    `json:"ticker"`
	CompanyName string    `json:"company_name"`
	EntryDate   time.Time `json:"entry_date"`
	ExitDate    time.Time `json:"exit_date"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	ReturnPct   float64   `json:"return_pct"`
}

// Failure records a matched ticker that could not be measured. Failures
// are excluded from the aggregates but never silently dropped.
type Failure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Performer pairs a ticker with its measured return.
type Performer struct {
	Ticker    string  `json:"ticker"`
	ReturnPct float64 `json:"return_pct"`
}

// Run is the write-once report of a completed backtest. Aggregate
// pointers are nil when no ticker could be measured: "no data", never NaN
// or a fabricated zero.
type Run struct {
	ID                uuid.UUID  `json:"id"`
	ScreenName        string     `json:"screen_name"`
	State             State      `json:"state"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	HoldingPeriodDays int        `json:"holding_period_days"`
	TotalScreened     int        `json:"total_screened"`
	StocksPassed      int        `json:"stocks_passed"`
	Positions         []Position `json:"positions"`
	Failures          []Failure  `json:"failures"`
	AverageReturn     *float64   `json:"average_return"`
	MedianReturn      *float64   `json:"median_return"`
	MaxReturn         *float64   `json:"max_return"`
	MinReturn         *float64   `json:"min_return"`
	StdDevReturn      *float64   `json:"stddev_return"`
	BestPerformer     *Performer `json:"best_performer"`
	WorstPerformer    *Performer `json:"worst_performer"`
	WinningCount      int        `json:"winning_count"`
	LosingCount       int        `json:"losing_count"`
	CreatedAt         time.Time  `json:"created_at"`
}

// HistoryStore is the append-only backtest history collaborator. Append
// is called exactly once per completed run; runs are never updated in
// place, so concurrent writers are safe as long as appends are atomic.
type HistoryStore interface {
	AppendBacktestRun(ctx context.Context, run *Run) error
	ListBacktestRuns(ctx context.Context, screenName string) ([]Run, error)
}

// Engine orchestrates screen evaluation at a historical date followed by
// forward-return measurement.
type Engine struct {
	screens *screener.Engine
	history HistoryStore
}

func NewEngine(screens *screener.Engine, history HistoryStore) *Engine {
	return &Engine{screens: screens, history: history}
}

// Run executes one backtest. The caller supplies snapshots reconstructed
// as of req.StartDate; the engine never sees data the screen should not
// know about, which is the look-ahead correctness property of the whole
// exercise. Per-ticker measurement failures are recorded, not fatal.
func (e *Engine) Run(ctx context.Context, req Request, snapshotsAsOfStart []models.Snapshot, prices PriceBook) (*Run, error) {
	def, err := e.resolveScreen(req)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	run := &Run{
		ID:                uuid.New(),
		ScreenName:        def.Name,
		State:             StateValidated,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		HoldingPeriodDays: req.HoldingPeriodDays,
		TotalScreened:     len(snapshotsAsOfStart),
		Positions:         []Position{},
		Failures:          []Failure{},
	}

	run.State = StateEvaluating
	result, err := e.screens.Run(def, snapshotsAsOfStart, req.Filters)
	if err != nil {
		run.State = StateFailed
		return run, fmt.Errorf("evaluating screen %q: %w", def.Name, err)
	}
	run.StocksPassed = len(result.Matches)

	run.State = StateMeasuring
	e.measure(run, req, result.Matches, prices)
	aggregate(run)

	run.State = StateCompleted
	run.CreatedAt = time.Now().UTC()

	if e.history != nil {
		if err := e.history.AppendBacktestRun(ctx, run); err != nil {
			run.State = StateFailed
			return run, fmt.Errorf("persisting backtest run: %w", err)
		}
	}

	log.Printf("Backtest %q completed: %d passed, %d measured, %d failed",
		def.Name, run.StocksPassed, len(run.Positions), len(run.Failures))

	return run, nil
}

func (e *Engine) resolveScreen(req Request) (screener.Definition, error) {
	if req.Definition != nil {
		return *req.Definition, nil
	}
	return screener.Get(req.ScreenKey)
}

func validateRequest(req Request) error {
	if !req.StartDate.Before(req.EndDate) {
		return &screener.ValidationError{Msg: "start_date must be before end_date"}
	}
	if req.HoldingPeriodDays <= 0 {
		return &screener.ValidationError{Msg: "holding_period_days must be positive"}
	}
	return nil
}

// measure fills in per-ticker entry/exit prices. Entry is the close at
// the start date; exit is the close after the holding period, capped at
// the request end date. Both lookups fall back to the nearest prior
// trading day only.
func (e *Engine) measure(run *Run, req Request, matches []models.Snapshot, prices PriceBook) {
	exitDate := req.StartDate.AddDate(0, 0, req.HoldingPeriodDays)
	if exitDate.After(req.EndDate) {
		exitDate = req.EndDate
	}

	for _, snap := range matches {
		entry, ok := prices.CloseOnOrBefore(snap.Ticker, req.StartDate)
		if !ok {
			run.Failures = append(run.Failures, Failure{Ticker: snap.Ticker, Reason: "no entry price on or before start date"})
			continue
		}
		exit, ok := prices.CloseOnOrBefore(snap.Ticker, exitDate)
		if !ok {
			run.Failures = append(run.Failures, Failure{Ticker: snap.Ticker, Reason: "no exit price on or before holding period end"})
			continue
		}
		if entry == 0 {
			run.Failures = append(run.Failures, Failure{Ticker: snap.Ticker, Reason: "zero entry price"})
			continue
		}

		run.Positions = append(run.Positions, Position{
			Ticker:      snap.Ticker,
			CompanyName: snap.CompanyName,
			EntryDate:   req.StartDate,
			ExitDate:    exitDate,
			EntryPrice:  entry,
			ExitPrice:   exit,
			ReturnPct:   (exit - entry) / entry * 100,
		})
	}
}

func aggregate(run *Run) {
	if len(run.Positions) == 0 {
		return
	}

	returns := make([]float64, len(run.Positions))
	best, worst := run.Positions[0], run.Positions[0]
	var sum float64
	for i, p := range run.Positions {
		returns[i] = p.ReturnPct
		sum += p.ReturnPct
		if p.ReturnPct > best.ReturnPct {
			best = p
		}
		if p.ReturnPct < worst.ReturnPct {
			worst = p
		}
		if p.ReturnPct > 0 {
			run.WinningCount++
		} else {
			run.LosingCount++
		}
	}

	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	run.AverageReturn = ptr(mean)
	run.MedianReturn = ptr(median(returns))
	run.MaxReturn = ptr(best.ReturnPct)
	run.MinReturn = ptr(worst.ReturnPct)
	run.StdDevReturn = ptr(math.Sqrt(variance))
	run.BestPerformer = &Performer{Ticker: best.Ticker, ReturnPct: best.ReturnPct}
	run.WorstPerformer = &Performer{Ticker: worst.Ticker, ReturnPct: worst.ReturnPct}
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func ptr(v float64) *float64 {
	return &v
}
