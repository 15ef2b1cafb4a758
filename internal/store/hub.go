package store

import (
	"sync"

	"github.com/fairchance/jobintake/internal/model"
)

// Hub fans change events out to subscribers.
type Hub struct {
	mu      sync.Mutex
	clients map[chan model.ChangeEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan model.ChangeEvent]struct{})}
}

func (h *Hub) Subscribe() chan model.ChangeEvent {
	ch := make(chan model.ChangeEvent, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Calling it twice is safe.
func (h *Hub) Unsubscribe(ch chan model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

func (h *Hub) Publish(evt model.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}
