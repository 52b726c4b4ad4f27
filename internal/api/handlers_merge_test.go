package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/pdfbinder/backend/internal/merge"
)

func TestStartMergeRequiresTwoFiles(t *testing.T) {
	h, e, _ := newTestHandler(t)
	wsID := createWorkspace(t, h, e)
	addFile(t, h, e, wsID, "only.pdf")

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+wsID+"/merge", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(wsID)

	err := h.HandleStartMerge(c)
	apiErr, ok := err.(*APIError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusConflict, apiErr.Status)
		assert.Equal(t, "INSUFFICIENT_FILES", apiErr.Code)
		assert.Contains(t, apiErr.Message, "have 1")
	}
}

func TestStartMergeAccepted(t *testing.T) {
	h, e, _ := newTestHandler(t)
	wsID := createWorkspace(t, h, e)
	addFile(t, h, e, wsID, "a.pdf")
	addFile(t, h, e, wsID, "b.pdf")

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+wsID+"/merge", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(wsID)

	if assert.NoError(t, h.HandleStartMerge(c)) {
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}

	var job merge.Job
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, wsID, job.WorkspaceID)
	assert.Equal(t, 2, job.TotalFiles)

	// The job is queryable right away
	req = httptest.NewRequest(http.MethodGet, "/api/merge/"+job.ID, nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("jobId")
	c.SetParamValues(job.ID)
	if assert.NoError(t, h.HandleMergeStatus(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMergeStatusUnknownJob(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/merge/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("jobId")
	c.SetParamValues("nope")

	err := h.HandleMergeStatus(c)
	apiErr, ok := err.(*APIError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	}
}

func TestDownloadBeforeComplete(t *testing.T) {
	h, e, _ := newTestHandler(t)
	wsID := createWorkspace(t, h, e)
	addFile(t, h, e, wsID, "a.pdf")
	addFile(t, h, e, wsID, "b.pdf")

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+wsID+"/merge", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(wsID)
	assert.NoError(t, h.HandleStartMerge(c))

	var job merge.Job
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))

	// Wait for the job to finish; the stub bytes are not real PDFs, so the
	// builder rejects them and the job ends in error.
	var final merge.Job
	for i := 0; i < 100; i++ {
		final, _ = h.merges.GetJob(job.ID)
		if final.Status == merge.StatusComplete || final.Status == merge.StatusError {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, merge.StatusError, final.Status)
	assert.Equal(t, "a.pdf", final.FailedFileName)

	// Download of a job without an artifact is a conflict
	req = httptest.NewRequest(http.MethodGet, "/api/merge/"+job.ID+"/download", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("jobId")
	c.SetParamValues(job.ID)

	err := h.HandleDownload(c)
	apiErr, ok := err.(*APIError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusConflict, apiErr.Status)
		assert.Equal(t, "MERGE_NOT_COMPLETE", apiErr.Code)
	}
}

func TestDownloadUnknownJob(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/merge/nope/download", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("jobId")
	c.SetParamValues("nope")

	err := h.HandleDownload(c)
	apiErr, ok := err.(*APIError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	}
}

func TestMergeProfileEndpoints(t *testing.T) {
	h, e, _ := newTestHandler(t)

	// 1. Default profile
	req := httptest.NewRequest(http.MethodGet, "/api/config/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if assert.NoError(t, h.HandleGetProfile(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"outputPrefix":"merged"`)
	}

	// 2. Update it
	payload := `{"outputPrefix":"scans","optimize":false,"dividerPage":true}`
	req = httptest.NewRequest(http.MethodPut, "/api/config/profile", bytes.NewBufferString(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if assert.NoError(t, h.HandleUpdateProfile(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"outputPrefix":"scans"`)
		assert.Contains(t, rec.Body.String(), `"dividerPage":true`)
	}

	// 3. Get reflects the update
	req = httptest.NewRequest(http.MethodGet, "/api/config/profile", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if assert.NoError(t, h.HandleGetProfile(c)) {
		assert.Contains(t, rec.Body.String(), `"outputPrefix":"scans"`)
	}
}
