package hub

import (
	"sync"

	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// Hub tracks the attached clients so they can be closed on shutdown.
// Room fan-out is done by the engine through each client's Deliver.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	l := log.L()
	l.Debug().Str(log.FieldConnectionID, client.ID).Msg("client registered")
}

// Unregister removes the client and closes its queue.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[client.ID]; ok && cur == client {
		delete(h.clients, client.ID)
	}
	h.mu.Unlock()
	client.Close()
	l := log.L()
	l.Debug().Str(log.FieldConnectionID, client.ID).Msg("client unregistered")
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client; their write pumps then close the sockets.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
