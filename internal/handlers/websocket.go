package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"visionserver/internal/broadcast"
	"visionserver/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventStreamHandler upgrades the connection and pumps hub events to the
// client. Every new connection gets the bounded log replay first, then live
// events; there is no resume across a disconnect beyond that replay.
func EventStreamHandler(hub *broadcast.Hub, logs *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logs.Error("api", "WebSocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		sub := hub.Subscribe()
		defer hub.Unsubscribe(sub)

		logs.Info("api", "Event stream client connected")

		go func() {
			for event := range sub.C {
				if err := conn.WriteJSON(event); err != nil {
					conn.Close()
					return
				}
			}
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logs.Info("api", "Event stream client disconnected")
				break
			}
		}
	}
}
