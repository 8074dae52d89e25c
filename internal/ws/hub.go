package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventSubmissionCreated = "submission_created"
	EventSubmissionDeleted = "submission_deleted"

	writeWait = 5 * time.Second

	// Events queued per client before it is treated as stalled and dropped.
	sendBuffer = 16
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// client owns a connection's write side; only its writer goroutine writes
// data frames to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans submission events out to every connected admin client.
// Broadcast never waits on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log.With("component", "ws"),
	}
}

func (h *Hub) AddConnection(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[conn] = c
	total := len(h.clients)
	h.mu.Unlock()

	go h.writePump(c)
	h.log.Debug("admin client connected", "total", total)
}

func (h *Hub) RemoveConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[conn]; ok {
		h.detach(c)
		h.log.Debug("admin client disconnected", "total", len(h.clients))
	}
}

// detach must be called with h.mu held. Closing send stops the writer,
// which closes the connection.
func (h *Hub) detach(c *client) {
	delete(h.clients, c.conn)
	close(c.send)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues event for every client. A client whose queue is full is
// dropped.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("admin client too slow, dropping", "queued", len(c.send))
			h.detach(c)
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("write to admin client failed", "error", err)
			h.RemoveConnection(c.conn)
			for range c.send {
			}
			return
		}
	}
}

// CloseAll sends a going-away frame to every client, then detaches them.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range clients {
		if h.clients[c.conn] == c {
			h.detach(c)
		}
	}
}
