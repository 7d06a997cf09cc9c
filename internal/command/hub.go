package command

import (
	"sync"

	"github.com/google/uuid"
)

// Commands pushed back to connected extensions.
const (
	RefreshAll     = "refresh_all"
	CloseTabPrefix = "close_tab:"
)

// Hub fans commands out to every connected extension client, best-effort.
// It is constructed once in main and passed to whoever needs to publish,
// never held in a package-level variable.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan string)}
}

// Subscribe registers a listener and returns its id and command channel.
// The channel is buffered; a subscriber that falls behind misses commands
// rather than blocking publishers.
func (h *Hub) Subscribe() (string, <-chan string) {
	id := uuid.New().String()
	ch := make(chan string, 16)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers cmd to every subscriber whose buffer has room and
// returns the number of deliveries.
func (h *Hub) Publish(cmd string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- cmd:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
