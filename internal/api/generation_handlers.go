// internal/api/generation_handlers.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/services"
)

type generateRequest struct {
	BookID uint `json:"bookId" binding:"required"`
}

// GenerateSummary starts a summary generation run and streams its progress
// as server-sent events. Guard conflicts and unknown books are rejected
// before the stream opens.
// POST /api/admin/books/generate-summary
func (h *Handlers) GenerateSummary(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "bookId is required")
		return
	}

	run, err := h.generation.StartSummaryRun(c.Request.Context(), req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.streamRun(c, run)
}

// GenerateAudio starts an audio narration run and streams its progress. The
// summary precondition is checked synchronously.
// POST /api/admin/books/generate-audio
func (h *Handlers) GenerateAudio(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "bookId is required")
		return
	}

	run, err := h.generation.StartAudioRun(c.Request.Context(), req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.streamRun(c, run)
}

// streamRun relays a run's progress events to the client in SSE framing,
// one `data:` line per event, flushed immediately. When the client goes
// away the remaining events are drained so the pipeline never blocks on a
// dead connection.
func (h *Handlers) streamRun(c *gin.Context, run *services.ProgressRun) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case event, ok := <-run.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to encode progress event", "run_id", run.ID, "error", err)
				continue
			}
			if _, err := c.Writer.WriteString("data: " + string(payload) + "\n\n"); err != nil {
				go drainRun(run)
				return
			}
			c.Writer.Flush()
		case <-clientGone:
			go drainRun(run)
			return
		}
	}
}

func drainRun(run *services.ProgressRun) {
	for range run.Events() {
	}
}
