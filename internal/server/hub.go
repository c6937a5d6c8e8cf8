package server

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/game"
)

var Log = logrus.New()

// Hub fans game events out to every connected client. A client whose send
// buffer is full is dropped instead of stalling the game.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	log     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = Log
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(e game.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.log.WithError(err).WithField("type", e.Type).Error("unable to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.WithField("player", c.player).Warn("client too slow, dropping")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close drops every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
