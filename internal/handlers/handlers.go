// Package handlers wires the screening, backtest and ingestion engines to
// the HTTP surface. Handlers translate JSON in and out and map engine
// errors onto status codes; all domain logic stays in the engines.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/steady-garbanzo/internal/models"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

// Health returns application health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// errorResponse is the JSON error envelope for every endpoint.
type errorResponse struct {
	Error string `json:"error"`
}

// apiError maps engine errors onto status codes: validation failures are
// 400, unknown screens are 404, everything else is 500.
func apiError(c echo.Context, err error) error {
	var ve *screener.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: ve.Error()})
	case errors.Is(err, screener.ErrScreenNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// sortByROE orders a universe by return on equity, best first, so a limit
// keeps the strongest matches. Snapshots without ROE sort last; ties keep
// their original relative order.
func sortByROE(universe []models.Snapshot) {
	sort.SliceStable(universe, func(i, j int) bool {
		a, aok := universe[i].Metric("roe")
		b, bok := universe[j].Metric("roe")
		if aok != bok {
			return aok
		}
		return a > b
	})
}
