// handlers_merge.go - Merge job handlers
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdfbinder/backend/internal/merge"
	"github.com/pdfbinder/backend/internal/models"
)

// HandleStartMerge snapshots the workspace order and starts an async merge
// job over it. Requires at least two files; the frontend mirrors this by
// disabling its merge button below two.
func (h *Handler) HandleStartMerge(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	snapshot := ws.Set.Snapshot()
	job, err := h.merges.StartMerge(ws.ID, snapshot)
	if err != nil {
		if errors.Is(err, merge.ErrInsufficientFiles) {
			return NewInsufficientFilesError(len(snapshot))
		}
		return NewInternalError("failed to start merge", err)
	}

	return c.JSON(http.StatusAccepted, job)
}

// HandleMergeStatus returns the status of a merge job
func (h *Handler) HandleMergeStatus(c echo.Context) error {
	jobID := c.Param("jobId")
	if jobID == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.merges.GetJob(jobID)
	if !ok {
		return NewNotFoundError("merge job", jobID)
	}

	return c.JSON(http.StatusOK, job)
}

// HandleDownload serves the merged artifact of a complete job as a file
// attachment
func (h *Handler) HandleDownload(c echo.Context) error {
	jobID := c.Param("jobId")
	if jobID == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.merges.GetJob(jobID)
	if !ok {
		return NewNotFoundError("merge job", jobID)
	}

	data, name, ok := h.merges.Result(jobID)
	if !ok {
		return &APIError{
			Status:  http.StatusConflict,
			Code:    "MERGE_NOT_COMPLETE",
			Message: fmt.Sprintf("merge job is %s, no artifact available", job.Status),
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// HandleGetProfile returns the active merge profile
func (h *Handler) HandleGetProfile(c echo.Context) error {
	return c.JSON(http.StatusOK, h.profiles.Current())
}

// HandleUpdateProfile replaces the active merge profile
func (h *Handler) HandleUpdateProfile(c echo.Context) error {
	var prof models.MergeProfile
	if err := c.Bind(&prof); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := h.profiles.Update(prof); err != nil {
		return NewInternalError("failed to update merge profile", err)
	}

	return c.JSON(http.StatusOK, h.profiles.Current())
}
