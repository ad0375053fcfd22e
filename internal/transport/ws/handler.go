package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"avalon/internal/app"
	"avalon/internal/monitor"
)

// Handler upgrades HTTP requests to WebSocket connections
type Handler struct {
	hub      *app.RoomHub
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *monitor.Metrics
}

// NewHandler creates a WebSocket handler bound to the room hub
func NewHandler(hub *app.RoomHub, logger *slog.Logger, metrics *monitor.Metrics) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: restrict origins once the client host list is settled
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		metrics: metrics,
	}
}

// ServeHTTP upgrades the connection and runs the client pumps. Every
// connection gets a fresh opaque identifier; room membership is
// negotiated over the socket with createRoom/joinRoom messages.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	playerID := uuid.New().String()
	h.logger.Info("websocket connected", "playerID", playerID, "remoteAddr", r.RemoteAddr)

	NewClient(conn, h.hub, playerID, h.logger, h.metrics).Run()
}
