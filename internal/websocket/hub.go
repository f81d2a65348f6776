package websocket

import (
	"encoding/json"
	"sync"
)

// ActivityEvent is pushed to every connected dashboard when something
// worth refreshing for happens.
type ActivityEvent struct {
	Kind      string `json:"kind"`
	EntityID  string `json:"entity_id"`
	AccountID string `json:"account_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Status    string `json:"status,omitempty"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Broadcast is best effort: slow clients drop events rather than block
// the request path.
func (h *Hub) Broadcast(event ActivityEvent) {
	payload, _ := json.Marshal(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
		}
	}
}
