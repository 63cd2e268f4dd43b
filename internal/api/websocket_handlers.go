// internal/api/websocket_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchGeneration mirrors a book's in-flight generation run over a
// websocket, so the admin console can follow progress from a tab other than
// the one that started the run. The socket closes when the run ends.
// GET /ws/admin/generation/:id
func (h *Handlers) WatchGeneration(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	run := h.progress.ActiveRunForBook(bookID)
	if run == nil {
		respondErrorMessage(c, http.StatusNotFound, "NOT_FOUND", "no generation run is active for this book")
		return
	}
	mirror := run.Mirror()

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "book_id", bookID, "error", err)
		return
	}
	defer conn.Close()

	// Reads are discarded; the socket exists to push events and to notice
	// when the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for event := range mirror {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run ended"))
}
