package presence

import "sync"

// Registry maps a durable user identity to at most one live transport
// connection. It is process-local runtime state: created empty at start,
// never persisted, rebuilt from zero on restart. Losing it is not a
// correctness bug - clients reconnect, re-register and reconcile.
//
// All methods are synchronous in-memory operations and never block on I/O.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connectionID
	byConn map[string]string // connectionID -> userID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register maps the user to the connection, superseding any prior
// connection for the same user (a new tab or a reconnect). The superseded
// connection is forgotten so its later disconnect can't unregister the
// newer one.
func (r *Registry) Register(userID, connectionID string) {
	if userID == "" || connectionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok {
		delete(r.byConn, old)
	}
	r.byUser[userID] = connectionID
	r.byConn[connectionID] = userID
}

// Unregister removes the entry for the given connection. It is a no-op
// when the connection is unknown or was already superseded, which guards
// against stale disconnect events.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connectionID]
	if !ok {
		return
	}
	delete(r.byConn, connectionID)
	if r.byUser[userID] == connectionID {
		delete(r.byUser, userID)
	}
}

// Resolve returns the live connection for the user, if any.
func (r *Registry) Resolve(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionID, ok := r.byUser[userID]
	return connectionID, ok
}

// Connected returns a snapshot of all users with a live connection.
func (r *Registry) Connected() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
