package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/pdfbinder/backend/internal/merge"
)

func TestMergeProgressUnknownJob(t *testing.T) {
	h, e, _ := newTestHandler(t)
	ws := NewWebSocketHandler(h.merges)

	req := httptest.NewRequest(http.MethodGet, "/api/ws/merge/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("jobId")
	c.SetParamValues("nope")

	err := ws.HandleMergeProgress(c)
	apiErr, ok := err.(*APIError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	}
}

func TestMergeProgressStreamsUntilTerminal(t *testing.T) {
	h, e, _ := newTestHandler(t)
	wsHandler := NewWebSocketHandler(h.merges)

	wsID := createWorkspace(t, h, e)
	addFile(t, h, e, wsID, "a.pdf")
	addFile(t, h, e, wsID, "b.pdf")

	workspace, ok := h.workspaces.Get(wsID)
	if !ok {
		t.Fatalf("Workspace missing")
	}
	job, err := h.merges.StartMerge(wsID, workspace.Set.Snapshot())
	if err != nil {
		t.Fatalf("StartMerge: %v", err)
	}

	e.GET("/api/ws/merge/:jobId", wsHandler.HandleMergeProgress)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/merge/" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Read pushes until the server reports a terminal state. The stub bytes
	// are not valid PDFs, so the job ends in error.
	var last merge.Job
	for {
		var update merge.Job
		if err := conn.ReadJSON(&update); err != nil {
			break
		}
		last = update
		if last.Status == merge.StatusComplete || last.Status == merge.StatusError {
			break
		}
	}

	assert.Equal(t, job.ID, last.ID)
	assert.Equal(t, merge.StatusError, last.Status)
}
