package slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/versionarr/versionarr/internal/quality"
)

// Handlers provides HTTP handlers for version slot operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new slot handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the slot routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/exclusivity", h.Exclusivity)
	g.GET("/usage", h.Usage)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.GET("/:id/impact", h.Impact)
	g.GET("/status/:mediaType/:mediaId", h.MediaStatus)
	g.GET("/assignments/:mediaType/:mediaId", h.Assignments)
	g.POST("/assignments", h.Assign)
	g.DELETE("/assignments/:mediaType/files/:fileId", h.Unassign)
}

// List returns all version slots.
// GET /api/v1/slots
func (h *Handlers) List(c echo.Context) error {
	result, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns a single slot.
// GET /api/v1/slots/:id
func (h *Handlers) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	slot, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, slot)
}

// Update updates a slot's configuration.
// PUT /api/v1/slots/:id
func (h *Handlers) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input UpdateSlotInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	slot, err := h.service.Update(ctx, id, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrSlotOccupied):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	// advisory: the save went through, the warnings ride along
	warnings, err := h.service.CheckExclusivity(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, UpdateSlotResponse{Slot: slot, Warnings: warnings})
}

// UpdateSlotResponse pairs the saved slot with the advisory exclusivity
// warnings for the resulting configuration.
type UpdateSlotResponse struct {
	Slot     *Slot                        `json:"slot"`
	Warnings []quality.SlotOverlapWarning `json:"warnings"`
}

// Impact previews the effect of binding a different profile to a slot.
// GET /api/v1/slots/:id/impact?profileId=2
func (h *Handlers) Impact(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	profileID, err := strconv.ParseInt(c.QueryParam("profileId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "profileId is required")
	}

	impact, err := h.service.ProfileChangeImpact(c.Request().Context(), id, profileID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound), errors.Is(err, quality.ErrProfileNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, impact)
}

// Exclusivity returns advisory overlap warnings for enabled slots.
// GET /api/v1/slots/exclusivity
func (h *Handlers) Exclusivity(c echo.Context) error {
	warnings, err := h.service.CheckExclusivity(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"warnings": warnings})
}

// Usage returns per-slot library-wide assignment counts.
// GET /api/v1/slots/usage
func (h *Handlers) Usage(c echo.Context) error {
	usage, err := h.service.GetSlotUsage(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, usage)
}

// MediaStatus returns the slot fill state for one media item.
// GET /api/v1/slots/status/:mediaType/:mediaId
func (h *Handlers) MediaStatus(c echo.Context) error {
	mediaType := MediaType(c.Param("mediaType"))
	mediaID, err := strconv.ParseInt(c.Param("mediaId"), 10, 64)
	if err != nil || !mediaType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media reference")
	}

	status, err := h.service.GetMediaSlotStatus(c.Request().Context(), mediaType, mediaID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

// Assignments returns one media item's slot assignments.
// GET /api/v1/slots/assignments/:mediaType/:mediaId
func (h *Handlers) Assignments(c echo.Context) error {
	mediaType := MediaType(c.Param("mediaType"))
	mediaID, err := strconv.ParseInt(c.Param("mediaId"), 10, 64)
	if err != nil || !mediaType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media reference")
	}

	assignments, err := h.service.GetAssignments(c.Request().Context(), mediaType, mediaID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, assignments)
}

// AssignInput is the input for manually assigning a file to a slot.
type AssignInput struct {
	MediaType MediaType `json:"mediaType"`
	MediaID   int64     `json:"mediaId"`
	SlotID    int64     `json:"slotId"`
	FileID    int64     `json:"fileId"`
	Replace   bool      `json:"replace"`
}

// Assign assigns a file to a slot, optionally replacing the current file.
// POST /api/v1/slots/assignments
func (h *Handlers) Assign(c echo.Context) error {
	var input AssignInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !input.MediaType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media type")
	}

	ctx := c.Request().Context()
	var (
		assignment *FileSlotAssignment
		err        error
	)
	if input.Replace {
		assignment, err = h.service.ReassignFile(ctx, input.MediaType, input.MediaID, input.SlotID, input.FileID)
	} else {
		assignment, err = h.service.AssignFile(ctx, input.MediaType, input.MediaID, input.SlotID, input.FileID)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrSlotOccupied), errors.Is(err, ErrFileAssigned):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, assignment)
}

// Unassign removes a file's slot assignment.
// DELETE /api/v1/slots/assignments/:mediaType/files/:fileId
func (h *Handlers) Unassign(c echo.Context) error {
	mediaType := MediaType(c.Param("mediaType"))
	fileID, err := strconv.ParseInt(c.Param("fileId"), 10, 64)
	if err != nil || !mediaType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file reference")
	}

	if err := h.service.UnassignFile(c.Request().Context(), mediaType, fileID); err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
