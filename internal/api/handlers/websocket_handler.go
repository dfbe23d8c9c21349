package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/ender-todo/internal/auth"
	ws "github.com/isdelr/ender-todo/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades signed-in requests to a live activity feed.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// The zero CheckOrigin only accepts same-host origins.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "Authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Int64("user_id", session.UserID).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, session.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
