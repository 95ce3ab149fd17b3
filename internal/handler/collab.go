package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"docforge/internal/collab"
	"docforge/internal/httputil"
)

// CollabHandler upgrades HTTP connections into collaboration sessions
type CollabHandler struct {
	hub      *collab.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewCollabHandler creates a new collaboration handler
func NewCollabHandler(hub *collab.Hub, logger *slog.Logger) *CollabHandler {
	return &CollabHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer in front of the mux
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS joins an authenticated user to the collaboration hub
// GET /ws
func (h *CollabHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	h.logger.Debug("websocket connected", "user_id", userID)

	session := h.hub.Register(userID)
	collab.NewClient(h.hub, session, conn, h.logger).Run()
}
