package engine

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/versionarr/versionarr/internal/release"
	"github.com/versionarr/versionarr/internal/slots"
)

// Handlers exposes the evaluation engine over HTTP for debugging and UI
// previews.
type Handlers struct {
	slots SlotSource
}

// NewHandlers creates new engine handlers.
func NewHandlers(slotSource SlotSource) *Handlers {
	return &Handlers{slots: slotSource}
}

// RegisterRoutes registers the engine routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/evaluate", h.Evaluate)
}

// EvaluateRequest simulates a release arriving for a media item.
type EvaluateRequest struct {
	Title     string          `json:"title"`
	MediaType slots.MediaType `json:"mediaType"`
	MediaID   int64           `json:"mediaId"`
}

// EvaluateResponse pairs the parsed release with its evaluation.
type EvaluateResponse struct {
	Release    *release.Release `json:"release"`
	Evaluation Evaluation       `json:"evaluation"`
}

// Evaluate parses a release title and scores it against the media item's
// slots without assigning anything.
// POST /api/v1/slots/evaluate
func (h *Handlers) Evaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if !req.MediaType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media type")
	}

	rel := release.Parse(req.Title)
	candidates, err := BuildCandidates(c.Request().Context(), h.slots, req.MediaType, req.MediaID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, EvaluateResponse{
		Release:    rel,
		Evaluation: Evaluate(rel, candidates),
	})
}
