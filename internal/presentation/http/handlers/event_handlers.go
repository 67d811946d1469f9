package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// EventHandlers upgrades browser connections onto the notification hub
type EventHandlers struct {
	hub      *messaging.Hub
	upgrader websocket.Upgrader
	logger   *logging.ChanneledLogger
}

// NewEventHandlers creates event handlers. Upgrades are only accepted from
// allowedOrigins, or from requests carrying no Origin header.
func NewEventHandlers(hub *messaging.Hub, allowedOrigins []string, logger *logging.ChanneledLogger) *EventHandlers {
	return &EventHandlers{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// StreamEvents handles GET /api/v1/events/ws
func (h *EventHandlers) StreamEvents(c *gin.Context) {
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor not resolved"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.WebSocket().Warn("WebSocket upgrade failed", "error", err.Error(), "origin", c.GetHeader("Origin"))
		return
	}

	h.logger.WebSocket().Info("WebSocket client connected", "visitorId", logging.SanitizeID(visitorID))
	h.hub.Serve(conn, visitorID)
	h.logger.WebSocket().Debug("WebSocket client disconnected", "visitorId", logging.SanitizeID(visitorID))
}
