package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/steady-garbanzo/internal/db"
	"github.com/mauv0809/steady-garbanzo/internal/screener"
	"github.com/mauv0809/steady-garbanzo/internal/snapshot"
)

// ScreenHandler handles screen listing, execution and custom screen CRUD.
type ScreenHandler struct {
	repo     *db.Repository
	provider *snapshot.Provider
	engine   *screener.Engine
}

// NewScreenHandler creates a new screen handler.
func NewScreenHandler(repo *db.Repository, provider *snapshot.Provider, engine *screener.Engine) *ScreenHandler {
	return &ScreenHandler{
		repo:     repo,
		provider: provider,
		engine:   engine,
	}
}

// screenInfo is one entry in the screen catalog.
type screenInfo struct {
	Key         string `json:"key,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Criteria    int    `json:"criteria"`
}

// ListScreens handles GET /api/screens
// Returns the predefined screens followed by stored custom screens.
func (h *ScreenHandler) ListScreens(c echo.Context) error {
	catalog := []screenInfo{}
	for _, def := range screener.List() {
		catalog = append(catalog, screenInfo{
			Key:         def.Key,
			Name:        def.Name,
			Description: def.Description,
			Source:      "predefined",
			Criteria:    len(def.Criteria),
		})
	}

	custom, err := h.repo.ListCustomScreens(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}
	for _, def := range custom {
		catalog = append(catalog, screenInfo{
			Name:        def.Name,
			Description: def.Description,
			Source:      "custom",
			Criteria:    len(def.Criteria),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"screens": catalog,
		"fields":  screener.ValidFields(),
	})
}

// runScreenRequest is the body for POST /api/screens/run. Either a
// screen_key naming a predefined or stored custom screen, or inline
// criteria, must be supplied.
type runScreenRequest struct {
	ScreenKey    string               `json:"screen_key"`
	Name         string               `json:"name"`
	Logic        screener.Logic       `json:"logic"`
	Criteria     []screener.Criterion `json:"criteria"`
	Sectors      []string             `json:"sectors"`
	MinMarketCap *float64             `json:"min_market_cap"`
	Limit        int                  `json:"limit"`
}

// resolve turns the request into a concrete screen definition.
func (h *ScreenHandler) resolve(c echo.Context, req runScreenRequest) (screener.Definition, error) {
	if len(req.Criteria) > 0 {
		name := req.Name
		if name == "" {
			name = "ad hoc"
		}
		logic := req.Logic
		if logic == "" {
			logic = screener.LogicAnd
		}
		return screener.Definition{
			Name:     name,
			Logic:    logic,
			Criteria: req.Criteria,
		}, nil
	}

	if req.ScreenKey == "" {
		return screener.Definition{}, &screener.ValidationError{Msg: "screen_key or criteria required"}
	}

	def, err := screener.Get(req.ScreenKey)
	if errors.Is(err, screener.ErrScreenNotFound) {
		return h.repo.GetCustomScreen(c.Request().Context(), req.ScreenKey)
	}
	return def, err
}

// RunScreen handles POST /api/screens/run
// Runs a screen over snapshots built as of today.
func (h *ScreenHandler) RunScreen(c echo.Context) error {
	var req runScreenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	def, err := h.resolve(c, req)
	if err != nil {
		return apiError(c, err)
	}

	universe, err := h.provider.UniverseAsOf(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return apiError(c, err)
	}
	sortByROE(universe)

	result, err := h.engine.Run(def, universe, screener.Filters{
		Sectors:      req.Sectors,
		MinMarketCap: req.MinMarketCap,
		Limit:        req.Limit,
	})
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"screen":  def.Name,
		"matches": result.Matches,
		"stats":   result.Stats,
	})
}

// customScreenRequest is the body for creating or updating a custom screen.
type customScreenRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Logic       screener.Logic       `json:"logic"`
	Criteria    []screener.Criterion `json:"criteria"`
}

// CreateCustomScreen handles POST /api/screens/custom
func (h *ScreenHandler) CreateCustomScreen(c echo.Context) error {
	var req customScreenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name required"})
	}
	if req.Logic == "" {
		req.Logic = screener.LogicAnd
	}

	def := screener.Definition{
		Name:        req.Name,
		Description: req.Description,
		Logic:       req.Logic,
		Criteria:    req.Criteria,
	}
	if err := def.Validate(); err != nil {
		return apiError(c, err)
	}

	if err := h.repo.SaveCustomScreen(c.Request().Context(), def); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, def)
}

// GetCustomScreen handles GET /api/screens/custom/:name
func (h *ScreenHandler) GetCustomScreen(c echo.Context) error {
	def, err := h.repo.GetCustomScreen(c.Request().Context(), c.Param("name"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, def)
}

// UpdateCustomScreen handles PUT /api/screens/custom/:name
// Replaces the named screen's definition; the name in the path wins.
func (h *ScreenHandler) UpdateCustomScreen(c echo.Context) error {
	name := c.Param("name")
	if _, err := h.repo.GetCustomScreen(c.Request().Context(), name); err != nil {
		return apiError(c, err)
	}

	var req customScreenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Logic == "" {
		req.Logic = screener.LogicAnd
	}

	def := screener.Definition{
		Name:        name,
		Description: req.Description,
		Logic:       req.Logic,
		Criteria:    req.Criteria,
	}
	if err := def.Validate(); err != nil {
		return apiError(c, err)
	}

	if err := h.repo.SaveCustomScreen(c.Request().Context(), def); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, def)
}

// DeleteCustomScreen handles DELETE /api/screens/custom/:name
func (h *ScreenHandler) DeleteCustomScreen(c echo.Context) error {
	if err := h.repo.DeleteCustomScreen(c.Request().Context(), c.Param("name")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
