package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"attendance/internal/logger"
	ws "attendance/internal/service/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFacesHandler handles GET /api/live: a websocket that pushes each
// detection snapshot as it is produced. The read loop exists only to notice
// the viewer going away.
func LiveFacesHandler(hub *ws.Hub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		id := hub.Register(conn)
		defer hub.Unregister(id)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
