package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pdfbinder/backend/internal/merge"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPushInterval = 250 * time.Millisecond
)

// WebSocketHandler pushes merge job progress to the browser so the frontend
// does not have to poll the status endpoint.
type WebSocketHandler struct {
	merges   *merge.Manager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(merges *merge.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		merges: merges,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Localhost single-binary app; the CORS middleware guards the
			// development setup.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleMergeProgress streams job status updates until the job reaches a
// terminal state or the client disconnects.
func (h *WebSocketHandler) HandleMergeProgress(c echo.Context) error {
	jobID := c.Param("jobId")
	if _, ok := h.merges.GetJob(jobID); !ok {
		return NewNotFoundError("merge job", jobID)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Drain reads so close frames from the client are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			job, ok := h.merges.GetJob(jobID)
			if !ok {
				return nil
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(job); err != nil {
				return nil
			}

			if job.Status == merge.StatusComplete || job.Status == merge.StatusError {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status)))
				return nil
			}
		}
	}
}
