// handlers_files.go - Workspace and file set operation handlers
package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdfbinder/backend/internal/fileset"
	"github.com/pdfbinder/backend/internal/models"
	"github.com/pdfbinder/backend/internal/pdfops"
)

// workspaceResponse is the ordered snapshot the frontend renders.
type workspaceResponse struct {
	ID    string             `json:"id"`
	Files []models.FileEntry `json:"files"`
}

func snapshotResponse(ws *fileset.Workspace) workspaceResponse {
	return workspaceResponse{ID: ws.ID, Files: ws.Set.Snapshot()}
}

// HandleCreateWorkspace starts a new empty workspace
func (h *Handler) HandleCreateWorkspace(c echo.Context) error {
	ws := h.workspaces.Create()
	return c.JSON(http.StatusCreated, snapshotResponse(ws))
}

// HandleGetWorkspace returns the current ordered snapshot of a workspace
func (h *Handler) HandleGetWorkspace(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}
	return c.JSON(http.StatusOK, snapshotResponse(ws))
}

// HandleDeleteWorkspace drops a workspace and all its files
func (h *Handler) HandleDeleteWorkspace(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}
	h.workspaces.Delete(ws.ID)
	return c.NoContent(http.StatusNoContent)
}

// HandleAddFile accepts a raw binary file (multipart/form-data) and adds it
// to the workspace's ordered set
func (h *Handler) HandleAddFile(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	entry, err := ws.Set.Add(file.Filename, file.Header.Get("Content-Type"), data)
	if err != nil {
		return addError(file.Filename, err)
	}

	return c.JSON(http.StatusCreated, entry)
}

// HandleAddFileJSON accepts a file as base64 JSON and adds it to the
// workspace's ordered set
func (h *Handler) HandleAddFileJSON(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	var req addFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	entry, err := ws.Set.Add(req.Name, req.ContentType, decoded)
	if err != nil {
		return addError(req.Name, err)
	}

	return c.JSON(http.StatusCreated, entry)
}

// HandleRemoveFile removes a file from the set. Removal is idempotent: an
// unknown file id still yields 204.
func (h *Handler) HandleRemoveFile(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	fileID := c.Param("fileId")
	if fileID == "" {
		return NewValidationError("fileId")
	}

	ws.Set.Remove(fileID)
	return c.NoContent(http.StatusNoContent)
}

// HandleMoveFile relocates a file to a new position in the set and returns
// the resulting order
func (h *Handler) HandleMoveFile(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	fileID := c.Param("fileId")
	if fileID == "" {
		return NewValidationError("fileId")
	}

	var req moveFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Index == nil {
		return NewValidationError("index")
	}

	ws.Set.MoveTo(fileID, *req.Index)
	return c.JSON(http.StatusOK, snapshotResponse(ws))
}

// HandleClearWorkspace empties the workspace's file set
func (h *Handler) HandleClearWorkspace(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	ws.Set.Clear()
	return c.NoContent(http.StatusNoContent)
}

// HandleGetPreview serves the thumbnail PNG for a file, 404 when none was
// rendered
func (h *Handler) HandleGetPreview(c echo.Context) error {
	ws, apiErr := h.workspace(c)
	if apiErr != nil {
		return apiErr
	}

	fileID := c.Param("fileId")
	preview, ok := ws.Set.Preview(fileID)
	if !ok {
		return NewNotFoundError("preview", fileID)
	}

	c.Response().Header().Set("Cache-Control", "max-age=86400")
	return c.Blob(http.StatusOK, "image/png", preview)
}

// addError maps a Set.Add failure to the right API error, naming the file.
func addError(fileName string, err error) *APIError {
	switch {
	case errors.Is(err, pdfops.ErrUnsupportedType):
		return NewUnsupportedTypeError(fileName)
	case errors.Is(err, pdfops.ErrCorruptFile):
		return NewCorruptFileError(fileName, err)
	default:
		return NewInternalError("failed to add file", err)
	}
}

// Request types

type addFileRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"` // Base64-encoded content
}

func (r *addFileRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type moveFileRequest struct {
	Index *int `json:"index"`
}
