package session // package session implements the server-side browser session and CSRF pair

import (
    "time"

    "github.com/readory/readory/internal/utils"
)

// Session binds an opaque cookie value to a creation time and a CSRF
// secret.  The session identifier travels in an HttpOnly cookie, so a
// cross-site request can replay it automatically; the CSRF token travels in
// the response body and must be echoed back in a request header, which a
// cross-site attacker cannot read.  Both must line up for a mutating request
// to pass.
//
// Fields:
//  ID        – opaque cookie value (16 random bytes, hex encoded).
//  CSRFToken – per-session secret (32 random bytes, hex encoded).
//  CreatedAt – UTC creation time; sessions expire MaxAge after this.
type Session struct {
    ID        string    `json:"id"`
    CSRFToken string    `json:"csrf_token"`
    CreatedAt time.Time `json:"created_at"`
}

// New creates a session with freshly generated identifier and CSRF token.
func New() (Session, error) {
    id, err := utils.RandomHex(16)
    if err != nil {
        return Session{}, err
    }
    csrf, err := utils.RandomHex(32)
    if err != nil {
        return Session{}, err
    }
    return Session{ID: id, CSRFToken: csrf, CreatedAt: time.Now().UTC()}, nil
}

// Expired reports whether the session is older than maxAge at the given
// instant.  Expiry is evaluated lazily at validation time; nothing sweeps
// stale records out of the memory store.
func (s Session) Expired(now time.Time, maxAge time.Duration) bool {
    return now.Sub(s.CreatedAt) > maxAge
}

// RotateCSRF replaces the CSRF secret with a fresh value and returns the
// updated session.  The caller is responsible for writing the new record
// back to the store and for surfacing the token to the client via the
// X-New-CSRF-Token response header.  Concurrent rotations for one session
// are resolved last-write-wins.
func (s Session) RotateCSRF() (Session, error) {
    csrf, err := utils.RandomHex(32)
    if err != nil {
        return Session{}, err
    }
    s.CSRFToken = csrf
    return s, nil
}
