package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/msomdec/skill-match/internal/metrics"
)

// Hub tracks every live Client. Unregistering a client removes its
// presence entries, so a stale connection can never evict a newer one.
type Hub struct {
	directory Directory
	relay     *Relay

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub(directory Directory, relay *Relay) *Hub {
	return &Hub{
		directory:  directory,
		relay:      relay,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Serve runs the hub until ctx is done, then closes every client. It
// satisfies suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.stopped) })
			n := h.closeAllClients()
			slog.Info("websocket hub stopped", "clients_closed", n)
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WSConnections.Set(float64(n))
			slog.Debug("websocket client connected", "client", c.id, "user", c.userID, "total_clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			delete(h.clients, c)
			n := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.directory.Disconnect(c)
				c.close()
			}
			metrics.WSConnections.Set(float64(n))
			slog.Debug("websocket client disconnected", "client", c.id, "user", c.userID, "total_clients", n)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

// Register adds c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

// leave queues c for removal. It is a no-op once the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// ClientCount returns the number of live clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	clear(h.clients)
	h.mu.Unlock()

	for _, c := range clients {
		h.directory.Disconnect(c)
		c.close()
	}
	metrics.WSConnections.Set(0)
	return len(clients)
}
