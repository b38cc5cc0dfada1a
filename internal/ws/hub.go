// Package ws streams matchmaking events to websocket observers.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourname/hardpoint-mm/pkg/logger"
	"github.com/yourname/hardpoint-mm/pkg/types"
)

const writeWait = 5 * time.Second

// Hub fans events out to every connected observer. Publish never blocks the
// caller; events are dropped when the buffer is full.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool

	broadcast chan types.Event
	upgrade   websocket.Upgrader
	log       logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:   map[*websocket.Conn]struct{}{},
		broadcast: make(chan types.Event, 64),
		upgrade:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:       logger.Named("ws"),
	}
}

// Run writes queued events to clients until ctx is done, then closes every
// connection. It is the only writer on client connections.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.broadcast:
			h.send(ctx, ev)
		}
	}
}

func (h *Hub) send(ctx context.Context, ev types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteJSON(ev); err != nil {
			h.log.Warn(ctx, "ws write failed", logger.String("remote", c.RemoteAddr().String()), logger.Error(err))
			c.Close()
			delete(h.clients, c)
		}
	}
}

// Publish queues ev for delivery.
func (h *Hub) Publish(ctx context.Context, ev types.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn(ctx, "ws buffer full, dropping event", logger.String("type", ev.Type))
	}
}

// Clients returns the number of connected observers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection. Incoming
// messages are discarded; a read error unregisters the client. Once Run has
// returned, requests get 503.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	c, err := h.upgrade.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Warn(r.Context(), "ws upgrade failed", logger.Error(err))
		return
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "event stream closed"),
			time.Now().Add(writeWait))
		c.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug(r.Context(), "ws client connected", logger.String("remote", c.RemoteAddr().String()))

	go h.readLoop(c)
}

func (h *Hub) readLoop(c *websocket.Conn) {
	defer h.drop(c)
	for {
		if _, _, err := c.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}
