package ws

import (
	"encoding/json"
	"sync"

	"inkcopilot/internal/checkout"
)

// Client is one websocket watching one checkout session.
type Client struct {
	SessionID string
	Owner     string
	Send      chan []byte
	Hub       *Hub
	mu        sync.Mutex
	closed    bool
}

func NewClient(sessionID, owner string) *Client {
	return &Client{SessionID: sessionID, Owner: owner, Send: make(chan []byte, 32)}
}

// Close unregisters the client and reports whether it was the last one on its session.
func (c *Client) Close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		return c.Hub.unregister(c)
	}
	return true
}

// Message is what a checkout page receives on every change.
type Message struct {
	Type     string            `json:"type"`
	View     checkout.View     `json:"view"`
	Checkout checkout.Snapshot `json:"checkout"`
}

func NewMessage(s checkout.Snapshot) Message {
	return Message{Type: "checkout", View: checkout.Render(s), Checkout: s}
}

// Hub fans checkout changes out to the pages watching them.
type Hub struct {
	mu        sync.RWMutex
	bySession map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{bySession: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	if h.bySession[c.SessionID] == nil {
		h.bySession[c.SessionID] = make(map[*Client]struct{})
	}
	h.bySession[c.SessionID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.bySession[c.SessionID]
	if m == nil {
		return true
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.bySession, c.SessionID)
		return true
	}
	return false
}

// CheckoutChanged sends the rendered snapshot to every page on the session.
// A client whose buffer is full misses the update; the next one supersedes it.
func (h *Hub) CheckoutChanged(s checkout.Snapshot) {
	data, err := json.Marshal(NewMessage(s))
	if err != nil {
		return
	}
	h.mu.RLock()
	m := h.bySession[s.ID]
	if m == nil {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.bySession {
		n += len(m)
	}
	return n
}
