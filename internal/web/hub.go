package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vatsalai/vatsal/internal/bridge"
)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Event is one frame pushed to websocket clients.
type Event struct {
	Type     string           `json:"type"` // "hello", "response" or "clear"
	ClientID string           `json:"client_id,omitempty"`
	Response *bridge.Delivery `json:"response,omitempty"`
}

type client struct {
	id   string
	send chan []byte
}

// Hub streams every delivered response to connected websocket clients.
// Clients that fall behind lose frames instead of blocking the bridge.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Broadcast is the bridge subscriber.
func (h *Hub) Broadcast(d bridge.Delivery) error {
	return h.publish(Event{Type: "response", Response: &d})
}

// Clear tells every client to clear its console.
func (h *Hub) Clear() error {
	return h.publish(Event{Type: "clear"})
}

func (h *Hub) publish(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
			slog.Warn("web: client too slow, frame dropped", "client", c.id)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many frames were discarded for slow clients.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// ServeWS upgrades the request and streams events until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("web: websocket upgrade failed", "err", err)
		return
	}

	c := &client{id: uuid.NewString(), send: make(chan []byte, clientBuffer)}
	hello, _ := json.Marshal(Event{Type: "hello", ClientID: c.id})
	c.send <- hello

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Info("web: client connected", "client", c.id, "remote", r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(conn, c, done)
	h.readLoop(conn)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(done)
	slog.Info("web: client disconnected", "client", c.id)
}

// readLoop discards client frames and returns when the connection closes.
func (h *Hub) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("web: write failed", "client", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
