package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/steady-garbanzo/internal/backtest"
	"github.com/mauv0809/steady-garbanzo/internal/db"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
	"github.com/mauv0809/steady-garbanzo/internal/snapshot"
)

const dateLayout = "2006-01-02"

// entryLookbackDays is the extra price history loaded before the start
// date so entry prices resolve to the nearest prior trading day across
// weekends and holidays.
const entryLookbackDays = 14

// BacktestHandler runs backtests and serves their stored history.
type BacktestHandler struct {
	repo     *db.Repository
	provider *snapshot.Provider
	engine   *backtest.Engine
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(repo *db.Repository, provider *snapshot.Provider, engine *backtest.Engine) *BacktestHandler {
	return &BacktestHandler{
		repo:     repo,
		provider: provider,
		engine:   engine,
	}
}

// runBacktestRequest is the body for POST /api/backtests. The screen is
// named by screen_key (predefined or stored custom) or given inline.
type runBacktestRequest struct {
	ScreenKey         string               `json:"screen_key"`
	Name              string               `json:"name"`
	Logic             screener.Logic       `json:"logic"`
	Criteria          []screener.Criterion `json:"criteria"`
	StartDate         string               `json:"start_date"`
	EndDate           string               `json:"end_date"`
	HoldingPeriodDays int                  `json:"holding_period_days"`
	Sectors           []string             `json:"sectors"`
	MinMarketCap      *float64             `json:"min_market_cap"`
	Limit             int                  `json:"limit"`
}

// RunBacktest handles POST /api/backtests
// Builds snapshots as of the start date so the screen never sees data
// from after its entry point, then runs and persists the backtest.
func (h *BacktestHandler) RunBacktest(c echo.Context) error {
	ctx := c.Request().Context()

	var req runBacktestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "start_date must be YYYY-MM-DD"})
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "end_date must be YYYY-MM-DD"})
	}

	engineReq := backtest.Request{
		ScreenKey:         req.ScreenKey,
		StartDate:         start,
		EndDate:           end,
		HoldingPeriodDays: req.HoldingPeriodDays,
		Filters: screener.Filters{
			Sectors:      req.Sectors,
			MinMarketCap: req.MinMarketCap,
			Limit:        req.Limit,
		},
	}

	if len(req.Criteria) > 0 {
		name := req.Name
		if name == "" {
			name = "ad hoc"
		}
		logic := req.Logic
		if logic == "" {
			logic = screener.LogicAnd
		}
		engineReq.Definition = &screener.Definition{
			Name:     name,
			Logic:    logic,
			Criteria: req.Criteria,
		}
	} else if req.ScreenKey != "" {
		// A key that is not predefined may name a stored custom screen.
		if _, err := screener.Get(req.ScreenKey); errors.Is(err, screener.ErrScreenNotFound) {
			def, err := h.repo.GetCustomScreen(ctx, req.ScreenKey)
			if err != nil {
				return apiError(c, err)
			}
			engineReq.Definition = &def
		}
	}

	universe, err := h.provider.UniverseAsOf(ctx, start)
	if err != nil {
		return apiError(c, err)
	}
	sortByROE(universe)

	tickers := make([]string, len(universe))
	for i, snap := range universe {
		tickers[i] = snap.Ticker
	}
	book, err := h.provider.PriceBook(ctx, tickers, start.AddDate(0, 0, -entryLookbackDays), end)
	if err != nil {
		return apiError(c, err)
	}

	run, err := h.engine.Run(ctx, engineReq, universe, backtest.PriceBook(book))
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, run)
}

// History handles GET /api/backtests
// Returns stored runs, newest first, optionally filtered by ?screen=.
func (h *BacktestHandler) History(c echo.Context) error {
	runs, err := h.repo.ListBacktestRuns(c.Request().Context(), c.QueryParam("screen"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// Compare handles GET /api/backtests/compare?screens=a,b&start=&end=
// Summarizes stored runs per screen over the given window.
func (h *BacktestHandler) Compare(c echo.Context) error {
	screensParam := c.QueryParam("screens")
	if screensParam == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "screens parameter is required (e.g., ?screens=value,growth)"})
	}
	names := strings.Split(screensParam, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	start := time.Time{}
	if s := c.QueryParam("start"); s != "" {
		var err error
		start, err = time.Parse(dateLayout, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "start must be YYYY-MM-DD"})
		}
	}
	end := time.Now().UTC()
	if s := c.QueryParam("end"); s != "" {
		var err error
		end, err = time.Parse(dateLayout, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "end must be YYYY-MM-DD"})
		}
	}

	comparisons, err := h.engine.CompareScreens(c.Request().Context(), names, start, end)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"comparisons": comparisons})
}
