package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"skillswap/internal/logger"
	"skillswap/internal/metrics"
)

const writeWait = 10 * time.Second

// Event is the envelope of everything pushed to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client serialises writes to one connection; gorilla connections support a
// single concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ev)
}

// Hub manages active WebSocket connections keyed by user ID and provides
// helper methods to push events to one or more users.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]map[*websocket.Conn]*client
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		conns:   make(map[string]map[*websocket.Conn]*client),
		log:     logger.OrNop(log),
		metrics: m,
	}
}

// Register adds a connection for the given user.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]*client)
	}
	h.conns[userID][conn] = &client{conn: conn}
	h.metrics.WebsocketConnected()
}

// Unregister removes a connection for the given user.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.conns[userID]; ok {
		if _, ok := conns[conn]; !ok {
			return
		}
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
		h.metrics.WebsocketDisconnected()
	}
}

// IsOnline reports whether userID has at least one open connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// PublishToUsers sends the event to all active connections of the given
// users. A connection that fails is closed; its read loop unregisters it.
func (h *Hub) PublishToUsers(userIDs []string, eventType string, payload any) {
	ev := Event{Type: eventType, Payload: payload}
	seen := make(map[string]struct{}, len(userIDs))
	for _, uid := range userIDs {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		for _, c := range h.clients(uid) {
			h.deliver(uid, c, ev)
		}
	}
}

// SendTo writes the event to one registered connection of userID only.
func (h *Hub) SendTo(userID string, conn *websocket.Conn, eventType string, payload any) {
	h.mu.RLock()
	c := h.conns[userID][conn]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	h.deliver(userID, c, Event{Type: eventType, Payload: payload})
}

// PublishAll sends the event to all connected users.
func (h *Hub) PublishAll(eventType string, payload any) {
	ev := Event{Type: eventType, Payload: payload}

	h.mu.RLock()
	targets := make(map[string][]*client, len(h.conns))
	for uid, conns := range h.conns {
		for _, c := range conns {
			targets[uid] = append(targets[uid], c)
		}
	}
	h.mu.RUnlock()

	for uid, clients := range targets {
		for _, c := range clients {
			h.deliver(uid, c, ev)
		}
	}
}

func (h *Hub) clients(userID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	res := make([]*client, 0, len(h.conns[userID]))
	for _, c := range h.conns[userID] {
		res = append(res, c)
	}
	return res
}

func (h *Hub) deliver(userID string, c *client, ev Event) {
	if err := c.write(ev); err != nil {
		h.log.Debug("ws: drop connection after failed write",
			zap.String("user_id", userID),
			zap.String("event", ev.Type),
			zap.Error(err),
		)
		c.conn.Close()
	}
}
