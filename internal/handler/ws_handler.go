package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"neoslink/internal/app/chat"
	"neoslink/internal/pkg/logx"
)

const writeWait = 10 * time.Second

// HandleWebSocket upgrades a link client and hands the session to the bridge.
// It returns when the session ends.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			HandleHealth(w, r)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		conn, err := chat.NewWebSocketConn(ws)
		if err != nil {
			logx.Error(err, "Failed to configure WebSocket connection")
			ws.Close()
			return
		}

		session := chat.NewSession(conn)
		logx.Info("WebSocket connection established", "session_id", session.ID, "remote_addr", r.RemoteAddr)

		deps.Bridge.Attach(r.Context(), session)
	}
}
