package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/steady-garbanzo/internal/db"
	"github.com/mauv0809/steady-garbanzo/internal/ingest"
	"github.com/mauv0809/steady-garbanzo/internal/models"
)

// IngestHandler handles data ingestion endpoints.
type IngestHandler struct {
	client *ingest.Client
	repo   *db.Repository
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(client *ingest.Client, repo *db.Repository) *IngestHandler {
	return &IngestHandler{
		client: client,
		repo:   repo,
	}
}

// IngestResponse is the JSON response for ingestion endpoints.
type IngestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
	Elapsed string `json:"elapsed,omitempty"`
}

func splitTickers(param string) []string {
	if param == "" {
		return nil
	}
	tickers := strings.Split(param, ",")
	for i := range tickers {
		tickers[i] = strings.TrimSpace(tickers[i])
	}
	return tickers
}

// IngestTickers handles POST /admin/ingest/tickers
// Refreshes the company list. Query params:
// - ticker: comma-separated tickers (optional, defaults to all)
func (h *IngestHandler) IngestTickers(c echo.Context) error {
	ctx := c.Request().Context()
	start := time.Now()

	tickerFilter := splitTickers(c.QueryParam("ticker"))
	if len(tickerFilter) > 0 {
		log.Printf("Starting ticker ingestion for: %v", tickerFilter)
	} else {
		log.Println("Starting ticker ingestion (all tickers)...")
	}

	rows, err := h.client.FetchTickers(ctx, tickerFilter)
	if err != nil {
		log.Printf("Error fetching tickers: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to fetch tickers: %v", err),
		})
	}

	log.Printf("Fetched %d tickers from API", len(rows))

	companies := make([]models.Company, len(rows))
	for i, row := range rows {
		companies[i] = row.Model()
	}

	count, err := h.repo.UpsertCompanies(ctx, companies)
	if err != nil {
		log.Printf("Error upserting companies: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to upsert companies: %v", err),
		})
	}

	elapsed := time.Since(start)
	log.Printf("Ticker ingestion complete: %d companies in %v", count, elapsed)

	return c.JSON(http.StatusOK, IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully ingested %d companies", count),
		Count:   count,
		Elapsed: elapsed.String(),
	})
}

// IngestFundamentals handles POST /admin/ingest/fundamentals
// Fetches annual fundamental periods. Query params:
// - ticker: comma-separated tickers (optional, defaults to all known companies)
// - since: YYYY-MM-DD, only rows updated on or after this date (optional, defaults to full history)
func (h *IngestHandler) IngestFundamentals(c echo.Context) error {
	ctx := c.Request().Context()
	start := time.Now()

	tickerFilter := splitTickers(c.QueryParam("ticker"))
	if len(tickerFilter) == 0 {
		var err error
		tickerFilter, err = h.repo.GetAllTickers(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, IngestResponse{
				Success: false,
				Message: fmt.Sprintf("Failed to get tickers: %v", err),
			})
		}
	}
	if len(tickerFilter) == 0 {
		return c.JSON(http.StatusBadRequest, IngestResponse{
			Success: false,
			Message: "No companies in database. Run /admin/ingest/tickers first.",
		})
	}

	var since time.Time
	if sinceParam := c.QueryParam("since"); sinceParam != "" {
		var err error
		since, err = time.Parse(dateLayout, sinceParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, IngestResponse{
				Success: false,
				Message: "since must be YYYY-MM-DD",
			})
		}
	}

	log.Printf("Starting fundamentals ingestion (tickers: %d, since: %v)...", len(tickerFilter), since)

	rows, err := h.client.FetchFundamentals(ctx, tickerFilter, since)
	if err != nil {
		log.Printf("Error fetching fundamentals: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to fetch fundamentals: %v", err),
		})
	}

	log.Printf("Fetched %d fundamental rows", len(rows))

	periods := make([]models.Fundamental, len(rows))
	for i, row := range rows {
		periods[i] = row.Model()
	}

	count, err := h.repo.UpsertFundamentals(ctx, periods)
	if err != nil {
		log.Printf("Error upserting fundamentals: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to upsert fundamentals: %v", err),
		})
	}

	elapsed := time.Since(start)
	log.Printf("Fundamentals ingestion complete: %d periods in %v", count, elapsed)

	return c.JSON(http.StatusOK, IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully ingested %d fundamental periods", count),
		Count:   count,
		Elapsed: elapsed.String(),
	})
}

// IngestDaily handles POST /admin/ingest/daily
// Fetches daily price bars. Query params:
// - ticker: comma-separated tickers (required)
// - full: if "true", fetch all history (default: incremental from the latest stored date)
func (h *IngestHandler) IngestDaily(c echo.Context) error {
	ctx := c.Request().Context()
	start := time.Now()

	tickers := splitTickers(c.QueryParam("ticker"))
	if len(tickers) == 0 {
		return c.JSON(http.StatusBadRequest, IngestResponse{
			Success: false,
			Message: "ticker parameter is required (e.g., ?ticker=AAPL,MSFT)",
		})
	}

	var since time.Time
	if c.QueryParam("full") != "true" {
		since, _ = h.repo.LatestPriceDate(ctx)
		log.Printf("Incremental fetch since %v", since)
	}

	log.Printf("Starting daily price ingestion (tickers: %v)...", tickers)

	rows, err := h.client.FetchDailyPrices(ctx, tickers, since)
	if err != nil {
		log.Printf("Error fetching daily prices: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to fetch daily prices: %v", err),
		})
	}

	log.Printf("Fetched %d daily price rows", len(rows))

	// Prices for tickers we have never ingested would violate the
	// foreign key, so they are dropped.
	known, err := h.repo.GetAllTickers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to get tickers: %v", err),
		})
	}
	knownSet := make(map[string]bool, len(known))
	for _, t := range known {
		knownSet[t] = true
	}

	bars := make([]models.DailyPrice, 0, len(rows))
	for _, row := range rows {
		if knownSet[row.Ticker] {
			bars = append(bars, row.Model())
		}
	}
	if len(bars) < len(rows) {
		log.Printf("Filtered to %d bars (some tickers not in companies table)", len(bars))
	}

	count, err := h.repo.UpsertDailyPrices(ctx, bars)
	if err != nil {
		log.Printf("Error upserting daily prices: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to upsert daily prices: %v", err),
		})
	}

	elapsed := time.Since(start)
	log.Printf("Daily price ingestion complete: %d bars in %v", count, elapsed)

	return c.JSON(http.StatusOK, IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully ingested %d daily prices", count),
		Count:   count,
		Elapsed: elapsed.String(),
	})
}

// IngestStatus handles GET /admin/ingest/status
// Returns stored row counts and the latest price date.
func (h *IngestHandler) IngestStatus(c echo.Context) error {
	ctx := c.Request().Context()

	companyCount, _ := h.repo.CompanyCount(ctx)
	fundamentalCount, _ := h.repo.FundamentalCount(ctx)
	priceCount, _ := h.repo.PriceCount(ctx)
	latestPrice, _ := h.repo.LatestPriceDate(ctx)

	latest := ""
	if !latestPrice.IsZero() {
		latest = latestPrice.Format(dateLayout)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"companies":         companyCount,
		"fundamentals":      fundamentalCount,
		"prices":            priceCount,
		"latest_price_date": latest,
	})
}
