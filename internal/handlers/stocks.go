package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/steady-garbanzo/internal/db"
	"github.com/mauv0809/steady-garbanzo/internal/snapshot"
)

// StockHandler serves company listings and single-company snapshots.
type StockHandler struct {
	repo     *db.Repository
	provider *snapshot.Provider
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(repo *db.Repository, provider *snapshot.Provider) *StockHandler {
	return &StockHandler{
		repo:     repo,
		provider: provider,
	}
}

// ListStocks handles GET /api/stocks
// Returns the active companies, optionally filtered by sector.
func (h *StockHandler) ListStocks(c echo.Context) error {
	companies, err := h.repo.GetCompanies(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}

	if sector := c.QueryParam("sector"); sector != "" {
		filtered := companies[:0]
		for _, company := range companies {
			if company.Sector == sector {
				filtered = append(filtered, company)
			}
		}
		companies = filtered
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(companies),
		"companies": companies,
	})
}

// GetStock handles GET /api/stocks/:ticker
// Returns the company's current snapshot with all computed metrics.
func (h *StockHandler) GetStock(c echo.Context) error {
	ctx := c.Request().Context()

	company, err := h.repo.GetCompany(ctx, c.Param("ticker"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "unknown ticker"})
	}

	snap, err := h.provider.SnapshotAsOf(ctx, company, time.Now().UTC())
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, snap)
}

// GetSectors handles GET /api/sectors
func (h *StockHandler) GetSectors(c echo.Context) error {
	sectors, err := h.repo.GetSectors(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sectors": sectors})
}
