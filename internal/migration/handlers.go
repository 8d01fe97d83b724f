package migration

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for migration operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new migration handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the migration routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/preview", h.Preview)
	g.POST("/execute", h.Execute)
	g.GET("/runs", h.Runs)
}

// Preview computes a dry-run migration plan. Optional overrides in the body
// are applied to the plan without being persisted.
// POST /api/v1/migration/preview
func (h *Handlers) Preview(c echo.Context) error {
	var input ExecuteInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	preview, err := h.service.GeneratePreview(c.Request().Context(), input.Overrides)
	if err != nil {
		if errors.Is(err, ErrNoSlotsEnabled) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, preview)
}

// Execute runs the migration and writes slot assignments.
// POST /api/v1/migration/execute
func (h *Handlers) Execute(c echo.Context) error {
	var input ExecuteInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Execute(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, ErrNoSlotsEnabled) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// Runs lists past migration runs.
// GET /api/v1/migration/runs
func (h *Handlers) Runs(c echo.Context) error {
	runs, err := h.service.ListRuns(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}
