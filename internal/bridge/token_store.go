// Package bridge is the client side of the session/CSRF handshake: a thin
// wrapper over net/http that keeps the local CSRF token in sync with the
// server session and transparently recovers once from a 401/403 by
// re-establishing the session.
package bridge

import (
	"os"
	"strings"
	"sync"
)

// TokenStore persists the CSRF token between calls under a fixed name.  The
// store never holds the session identifier — that lives in the HttpOnly
// cookie the http.Client jar carries.
type TokenStore interface {
	Load() string
	Save(token string)
	Clear()
}

// MemoryTokenStore keeps the token in process memory.  Suitable for tests
// and for callers whose lifetime matches the session's.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (m *MemoryTokenStore) Load() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokenStore) Save(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MemoryTokenStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}

// FileTokenStore persists the token to a file so command-line clients keep
// their session across invocations.  Failures degrade to an empty token;
// the bridge will simply re-login on the first rejected call.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

func NewFileTokenStore(path string) *FileTokenStore { return &FileTokenStore{path: path} }

func (f *FileTokenStore) Load() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (f *FileTokenStore) Save(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = os.WriteFile(f.path, []byte(token), 0o600)
}

func (f *FileTokenStore) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = os.Remove(f.path)
}
