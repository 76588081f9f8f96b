package chat

import "sync"

// Registry is the single source of truth for which users are online. It owns
// the userId to session mapping; all mutations are per-key atomic and a new
// connection for an already-present user replaces the prior entry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry. It is created at server start and
// injected into the router; there is no package-level instance.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register inserts or replaces the mapping for the session's user. The
// replaced session, if any, is returned already closed so in-flight
// deliveries to the orphaned connection fail instead of racing the new one.
func (r *Registry) Register(s *Session) *Session {
	r.mu.Lock()
	prev := r.sessions[s.UserID]
	r.sessions[s.UserID] = s
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return prev
}

// Unregister removes the mapping only while it still points at this exact
// session. A stale unregister racing a replacing Register is a no-op, so the
// newer session keeps its entry. Reports whether an entry was removed.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[s.UserID]; ok && current == s {
		delete(r.sessions, s.UserID)
		return true
	}
	return false
}

// Lookup returns the session currently bound to userID.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// Snapshot returns a point-in-time copy of all sessions. Callers deliver to
// the copy without holding any registry lock, so a slow recipient cannot
// stall registration.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
