package agent

import (
	"fmt"
	"io"
	"sync"
)

// Registry maps client identifiers to their live session and connection
// handle. An entry exists iff the connection is currently open: created on
// accept, removed on disconnect. At most one entry per client id.
type Registry struct {
	mu           sync.RWMutex
	systemPrompt string
	entries      map[string]*entry // key = client id
}

type entry struct {
	session *Session
	conn    io.Closer
}

// NewRegistry creates an empty registry. New sessions are seeded with the
// given system prompt on Open.
func NewRegistry(systemPrompt string) *Registry {
	return &Registry{
		systemPrompt: systemPrompt,
		entries:      make(map[string]*entry),
	}
}

// Open creates a fresh empty session for the client and stores it together
// with the connection handle. A second Open for a live client id fails with
// ErrDuplicateClient rather than evicting the prior connection.
func (r *Registry) Open(clientID string, conn io.Closer) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[clientID]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateClient, clientID)
	}

	session := NewSession(clientID, r.systemPrompt)
	r.entries[clientID] = &entry{session: session, conn: conn}
	return session, nil
}

// Lookup returns the session for an open client.
func (r *Registry) Lookup(clientID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClient, clientID)
	}
	return e.session, nil
}

// Close removes the client's entry. Idempotent: closing an already-closed
// or never-opened id is a no-op, so every disconnect path can call it
// unconditionally without leaking entries.
func (r *Registry) Close(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, clientID)
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
