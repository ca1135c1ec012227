// Package presence tracks the volatile association between users and their
// live real-time connections.
package presence

import (
	"sort"
	"sync"
)

// Registry maps user ids to active connection ids. It is process-local state
// behind an interface so a shared backing store can replace the in-memory
// implementation without touching call sites.
type Registry interface {
	// Register maps a user to a connection. A user has at most one active
	// connection: registering again silently replaces the previous one
	// (last writer wins). Idempotent.
	Register(userID, connID string)

	// Unregister removes any entry whose connection id equals connID.
	// Unknown ids are ignored.
	Unregister(connID string)

	// Lookup returns the user's active connection id, if any.
	Lookup(userID string) (string, bool)

	// Snapshot returns the currently-registered user ids, sorted.
	Snapshot() []string
}

// Memory is the in-memory Registry used by a single-process deployment.
type Memory struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connID
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{byUser: make(map[string]string)}
}

// Register implements Registry.
func (m *Memory) Register(userID, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[userID] = connID
}

// Unregister implements Registry. Entries are matched by connection id, so a
// register that already replaced the entry is left alone only when the new
// connection id differs.
func (m *Memory) Unregister(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for user, conn := range m.byUser {
		if conn == connID {
			delete(m.byUser, user)
		}
	}
}

// Lookup implements Registry.
func (m *Memory) Lookup(userID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.byUser[userID]
	return conn, ok
}

// Snapshot implements Registry.
func (m *Memory) Snapshot() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]string, 0, len(m.byUser))
	for user := range m.byUser {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}
