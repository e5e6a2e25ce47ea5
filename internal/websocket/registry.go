package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live connections by identifier. All mutation points are
// guarded by a mutex: unlike an event-loop runtime, handlers here run on
// parallel goroutines. Snapshots preserve registration insertion order so
// broadcast delivery order is deterministic.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	order       []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

// Register admits conn, assigns it a fresh random identifier, and returns
// that identifier. Always succeeds; the connection starts anonymous.
func (r *Registry) Register(conn *Connection) string {
	id := uuid.New().String()
	conn.setID(id)
	conn.Touch()

	r.mu.Lock()
	r.connections[id] = conn
	r.order = append(r.order, id)
	r.mu.Unlock()

	return id
}

// RecordIdentity sets the claimed identity on the named connection. A missing
// connection is silently ignored: removal races with authenticate frames are
// expected under concurrent socket close.
func (r *Registry) RecordIdentity(connectionID, userID, role string) {
	r.mu.RLock()
	conn, ok := r.connections[connectionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	conn.SetIdentity(userID, role)
}

// Touch updates the named connection's last-activity timestamp. No-op if the
// connection is gone.
func (r *Registry) Touch(connectionID string) {
	r.mu.RLock()
	conn, ok := r.connections[connectionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	conn.Touch()
}

// Get returns the named connection.
func (r *Registry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[connectionID]
	return conn, ok
}

// Remove deletes the named connection. Idempotent.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[connectionID]; !ok {
		return
	}
	delete(r.connections, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// All returns a snapshot of the registered connections in registration order.
// Membership may change concurrently after the call returns.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*Connection, 0, len(r.order))
	for _, id := range r.order {
		if conn, ok := r.connections[id]; ok {
			snapshot = append(snapshot, conn)
		}
	}
	return snapshot
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
