package notify

import (
	"sync"

	"github.com/dxcccii/taskdesk/pkg/set"
)

// Subscriptions maps service id to the set of subscribed client ids.
// Safe for concurrent use; independent of the allocation locks.
type Subscriptions struct {
	mu   sync.RWMutex
	subs map[string]set.Set[string]
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		subs: make(map[string]set.Set[string]),
	}
}

// Subscribe reports whether the client was newly added.
func (s *Subscriptions) Subscribe(clientID, serviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, ok := s.subs[serviceID]
	if !ok {
		clients = set.New[string]()
		s.subs[serviceID] = clients
	}

	if clients.Contains(clientID) {
		return false
	}
	clients.Add(clientID)
	return true
}

func (s *Subscriptions) Unsubscribe(clientID, serviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clients, ok := s.subs[serviceID]; ok {
		clients.Remove(clientID)
	}
}

// DropClient removes the client from every service, used on disconnect.
func (s *Subscriptions) DropClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.subs {
		clients.Remove(clientID)
	}
}

// Subscribers returns the current subscriber ids in deterministic order.
func (s *Subscriptions) Subscribers(serviceID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients, ok := s.subs[serviceID]
	if !ok {
		return nil
	}
	return set.SortedSlice(clients)
}
