package handlers

import (
	"log/slog"
	"net/http"

	ws "github.com/gorilla/websocket"

	"newsroom/internal/middleware"
	"newsroom/internal/websocket"
)

// HandleAuditStream upgrades an admin connection and streams audit events as JSON text frames.
func (s *Server) HandleAuditStream() http.HandlerFunc {
	upgrader := ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.CORS.Allows(origin)
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Debug("audit stream upgrade failed", "user", user.ID, "error", err)
			return
		}
		websocket.NewClient(s.Hub, user.ID, conn).Serve()
	}
}
