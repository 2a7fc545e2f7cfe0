package server

import (
	"bufio"
	"fmt"
	"sync"
)

// lineWriter serializes writes to one connection so that command replies
// and pushed events never interleave mid-line.
type lineWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (lw *lineWriter) WriteLine(line string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if _, err := lw.w.WriteString(line + "\n"); err != nil {
		return err
	}
	return lw.w.Flush()
}

// Hub tracks the identified sessions and implements notify.Deliverer by
// writing the event line straight to the subscriber's open connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*lineWriter
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*lineWriter),
	}
}

func (h *Hub) Deliver(clientID string, line string) error {
	h.mu.RLock()
	lw, ok := h.clients[clientID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("client %s not connected", clientID)
	}
	return lw.WriteLine(line)
}

func (h *Hub) attach(clientID string, lw *lineWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[clientID] = lw
}

// detach removes the client only if it is still bound to this writer, so
// a reconnect is not torn down by the old connection's cleanup.
func (h *Hub) detach(clientID string, lw *lineWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[clientID]; ok && current == lw {
		delete(h.clients, clientID)
	}
}
