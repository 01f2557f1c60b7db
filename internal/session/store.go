package session

import (
    "context"
    "sync"
)

// Store defines how sessions are stored and retrieved.  The interface keeps
// call sites independent of where records live, so the in-process map used
// for a single instance can be swapped for Redis without touching handlers.
//
// Get returns (zero, false, nil) for an unknown id rather than an error:
// an absent session is an expected outcome the middleware turns into a 401,
// not a storage failure.
type Store interface {
    Get(ctx context.Context, id string) (Session, bool, error)
    Put(ctx context.Context, s Session) error
    Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in a mutex-guarded map inside the server
// process.  Records do not survive a restart and expired entries are only
// detected (and denied) at validation time; there is no eviction sweep.
// Each mutation touches a single key, so one lock is sufficient.
type MemoryStore struct {
    mu       sync.RWMutex
    sessions map[string]Session
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{sessions: make(map[string]Session)}
}

// Get looks up a session by id.
func (m *MemoryStore) Get(_ context.Context, id string) (Session, bool, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    s, ok := m.sessions[id]
    return s, ok, nil
}

// Put inserts or overwrites a session record.  Overwriting is how CSRF
// rotation lands: the whole record is replaced under the lock.
func (m *MemoryStore) Put(_ context.Context, s Session) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.sessions[s.ID] = s
    return nil
}

// Delete removes a session.  Deleting an unknown id is a no-op so logout
// stays idempotent.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.sessions, id)
    return nil
}

// Len reports the number of stored sessions.  Used by tests.
func (m *MemoryStore) Len() int {
    m.mu.RLock()
    defer m.mu.RUnlock()
    return len(m.sessions)
}
