package runtime

import (
	"member-chat/contract"
	"sync"

	"github.com/google/uuid"
)

type Set map[string]struct{}

// Registry tracks the open realtime connections. A user with two tabs on the
// same room holds two connections and receives every delivery twice.
type Registry struct {
	mu          sync.RWMutex
	Connections map[string]contract.Subscriber // connection id -> subscriber
	RoomMembers map[uuid.UUID]Set              // room -> connection ids
}

func NewRegistry() *Registry {
	return &Registry{
		Connections: make(map[string]contract.Subscriber),
		RoomMembers: make(map[uuid.UUID]Set),
	}
}

// SubscribersForRoom returns every connection currently open on roomID.
func (r *Registry) SubscribersForRoom(roomID uuid.UUID) []contract.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	subscribers := make([]contract.Subscriber, 0, len(members))
	for connectionID := range members {
		if sub, exists := r.Connections[connectionID]; exists {
			subscribers = append(subscribers, sub)
		}
	}
	return subscribers
}

// Subscribe registers a connection. Subscribing an existing connection id
// again moves it to the new room.
func (r *Registry) Subscribe(sub contract.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.Connections[sub.ConnectionID]; ok {
		r.removeLocked(previous)
	}
	r.Connections[sub.ConnectionID] = sub
	if _, ok := r.RoomMembers[sub.RoomID]; !ok {
		r.RoomMembers[sub.RoomID] = make(Set)
	}
	r.RoomMembers[sub.RoomID][sub.ConnectionID] = struct{}{}
}

// Unsubscribe removes the connection and leaves no empty room entry behind.
func (r *Registry) Unsubscribe(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.Connections[connectionID]; ok {
		r.removeLocked(sub)
	}
}

// UnsubscribeUser removes every connection userID holds on roomID, used when
// their membership ends.
func (r *Registry) UnsubscribeUser(roomID uuid.UUID, userID string) []contract.Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []contract.Subscriber
	for connectionID := range r.RoomMembers[roomID] {
		if sub, ok := r.Connections[connectionID]; ok && sub.UserID == userID {
			removed = append(removed, sub)
		}
	}
	for _, sub := range removed {
		r.removeLocked(sub)
	}
	return removed
}

// Count returns the number of open connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Connections)
}

func (r *Registry) removeLocked(sub contract.Subscriber) {
	delete(r.Connections, sub.ConnectionID)
	if members, ok := r.RoomMembers[sub.RoomID]; ok {
		delete(members, sub.ConnectionID)
		if len(members) == 0 {
			delete(r.RoomMembers, sub.RoomID)
		}
	}
}
