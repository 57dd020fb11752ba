package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pr-poehali-dev/image-description-webapp/internal/analysis"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleProgress upgrades the connection to a websocket and streams
// workflow progress events. The current status goes out first so a client
// connecting mid-run can render immediately.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade to websocket", "err", err)
		return
	}
	defer conn.Close()

	id, events := h.bus.Subscribe()
	defer h.bus.Unsubscribe(id)

	if err := conn.WriteJSON(h.workflow.Status()); err != nil {
		slog.Debug("Progress client disconnected", "err", err)
		return
	}

	// Clients never send data; the read pump only detects the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			progress, ok := ev.(analysis.Progress)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(progress); err != nil {
				slog.Debug("Progress client disconnected", "err", err)
				return
			}
		}
	}
}
