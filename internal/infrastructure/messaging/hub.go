package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Client represents a single connected browser tab.
type Client struct {
	Conn      *websocket.Conn
	VisitorID string
	Send      chan []byte
}

// InboundHandler receives messages a browser sends over its socket.
type InboundHandler func(visitorID string, msg Message)

// Hub manages all connected browser clients, keyed by visitor.
type Hub struct {
	visitorClients map[string]map[*Client]bool
	register       chan *Client
	unregister     chan *Client
	done           chan struct{}
	inbound        InboundHandler
	mu             sync.RWMutex
	logger         *logging.ChanneledLogger
}

// NewHub creates a new hub. Run must be started before clients connect.
func NewHub(logger *logging.ChanneledLogger) *Hub {
	return &Hub{
		visitorClients: make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		logger:         logger,
	}
}

// OnMessage sets the handler for inbound browser messages. Call before Run.
func (h *Hub) OnMessage(fn InboundHandler) {
	h.inbound = fn
}

// Run is the hub's main loop. It returns when ctx is cancelled, after
// releasing every connected client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.visitorClients[client.VisitorID]; !ok {
				h.visitorClients[client.VisitorID] = make(map[*Client]bool)
			}
			h.visitorClients[client.VisitorID][client] = true
			h.mu.Unlock()
			h.logger.WebSocket().Debug("WebSocket client registered", "visitorId", logging.SanitizeID(client.VisitorID))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.visitorClients[client.VisitorID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.visitorClients, client.VisitorID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.WebSocket().Debug("WebSocket client unregistered", "visitorId", logging.SanitizeID(client.VisitorID))

		case <-ctx.Done():
			h.mu.Lock()
			for visitorID, clients := range h.visitorClients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.visitorClients, visitorID)
			}
			h.mu.Unlock()
			h.logger.Shutdown().Info("WebSocket hub stopped")
			return
		}
	}
}

// Register queues a client for registration. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister queues a client for unregistration.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify sends msg to every socket the visitor has open and returns how many
// were queued. Slow clients drop the message.
func (h *Hub) Notify(visitorID string, msg Message) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.WebSocket().Error("Failed to marshal websocket message", "error", err.Error(), "type", msg.Type)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.visitorClients[visitorID] {
		select {
		case client.Send <- payload:
			sent++
		default:
		}
	}
	h.logger.WebSocket().Debug("WebSocket notification sent", "visitorId", logging.SanitizeID(visitorID), "type", msg.Type, "clients", sent)
	return sent
}

// ConnectionCount returns how many sockets the visitor has open.
func (h *Hub) ConnectionCount(visitorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.visitorClients[visitorID])
}

// Serve attaches an upgraded connection to the hub and blocks until it closes.
func (h *Hub) Serve(conn *websocket.Conn, visitorID string) {
	client := &Client{Conn: conn, VisitorID: visitorID, Send: make(chan []byte, sendBuffer)}
	if !h.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump(h)
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WebSocket().Warn("WebSocket read failed", "visitorId", logging.SanitizeID(c.VisitorID), "error", err.Error())
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.WebSocket().Debug("Ignoring malformed websocket message", "visitorId", logging.SanitizeID(c.VisitorID))
			continue
		}
		if h.inbound != nil {
			h.inbound(c.VisitorID, msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TotalConnections returns how many sockets are open across all visitors.
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, clients := range h.visitorClients {
		total += len(clients)
	}
	return total
}
