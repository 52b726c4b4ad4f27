package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdfbinder/backend/internal/fileset"
	"github.com/pdfbinder/backend/internal/merge"
)

// Handler handles API requests.
type Handler struct {
	workspaces *fileset.Manager
	merges     *merge.Manager
	profiles   *merge.ProfileStore
	version    string
}

// NewHandler creates a new API handler.
func NewHandler(workspaces *fileset.Manager, merges *merge.Manager, profiles *merge.ProfileStore, version string) *Handler {
	return &Handler{
		workspaces: workspaces,
		merges:     merges,
		profiles:   profiles,
		version:    version,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// workspace resolves the :id route param to a live workspace and marks it
// accessed.
func (h *Handler) workspace(c echo.Context) (*fileset.Workspace, *APIError) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}

	ws, ok := h.workspaces.Get(id)
	if !ok {
		return nil, NewNotFoundError("workspace", id)
	}
	h.workspaces.Touch(id)

	return ws, nil
}
