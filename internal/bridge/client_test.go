package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bridgeServer is a minimal stand-in for the API: /api/login mints a fresh
// CSRF token (and session cookie) and one protected route accepts only the
// current token.
type bridgeServer struct {
	token     atomic.Value // current CSRF token
	logins    atomic.Int64
	attempts  atomic.Int64
	failLogin atomic.Bool
	rotateTo  atomic.Value // when set, successful responses carry X-New-CSRF-Token
}

func newBridgeServer(t *testing.T) (*bridgeServer, *httptest.Server) {
	t.Helper()
	bs := &bridgeServer{}
	bs.token.Store("")
	bs.rotateTo.Store("")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if bs.failLogin.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		n := bs.logins.Add(1)
		token := fmt.Sprintf("csrf-%d", n)
		bs.token.Store(token)
		http.SetCookie(w, &http.Cookie{Name: "sessionId", Value: fmt.Sprintf("sid-%d", n), Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
	})
	mux.HandleFunc("/api/thing", func(w http.ResponseWriter, r *http.Request) {
		attempt := bs.attempts.Add(1)
		w.Header().Set("X-Attempt", strconv.FormatInt(attempt, 10))
		current := bs.token.Load().(string)
		if current == "" || r.Header.Get("X-CSRF-Token") != current {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if rot := bs.rotateTo.Load().(string); rot != "" {
			bs.token.Store(rot)
			w.Header().Set("X-New-CSRF-Token", rot)
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/denied", func(w http.ResponseWriter, r *http.Request) {
		attempt := bs.attempts.Add(1)
		w.Header().Set("X-Attempt", strconv.FormatInt(attempt, 10))
		w.WriteHeader(http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return bs, srv
}

func TestDoRecoversOnceFromRejection(t *testing.T) {
	bs, srv := newBridgeServer(t)
	c, err := New(srv.URL, NewMemoryTokenStore())
	require.NoError(t, err)

	// No session yet: first attempt 403, one re-login, one retry, done.
	res, err := c.Do(context.Background(), http.MethodPost, "/api/thing", []byte(`{}`))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 2, bs.attempts.Load(), "exactly two network attempts")
	assert.EqualValues(t, 1, bs.logins.Load(), "exactly one re-login")
}

func TestDoPassesThroughOnSuccess(t *testing.T) {
	bs, srv := newBridgeServer(t)
	c, err := New(srv.URL, NewMemoryTokenStore())
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))

	res, err := c.Do(context.Background(), http.MethodPost, "/api/thing", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 1, bs.attempts.Load(), "no retry on success")
}

func TestDoPersistsRotatedToken(t *testing.T) {
	bs, srv := newBridgeServer(t)
	store := NewMemoryTokenStore()
	c, err := New(srv.URL, store)
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))

	bs.rotateTo.Store("rotated-token")
	res, err := c.Do(context.Background(), http.MethodPost, "/api/thing", nil)
	require.NoError(t, err)
	res.Body.Close()

	// The rotated value is now the local source of truth and the next call
	// succeeds with it on the first attempt.
	assert.Equal(t, "rotated-token", store.Load())

	bs.rotateTo.Store("")
	before := bs.attempts.Load()
	res, err = c.Do(context.Background(), http.MethodPost, "/api/thing", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, before+1, bs.attempts.Load())
}

func TestDoReturnsOriginalResponseWhenReloginFails(t *testing.T) {
	bs, srv := newBridgeServer(t)
	c, err := New(srv.URL, NewMemoryTokenStore())
	require.NoError(t, err)

	bs.failLogin.Store(true)
	res, err := c.Do(context.Background(), http.MethodPost, "/api/thing", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	// The original failing response comes back unmodified; no retry happened.
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "1", res.Header.Get("X-Attempt"))
	assert.EqualValues(t, 1, bs.attempts.Load())
}

func TestDoReturnsOriginalResponseWhenRetryAlsoFails(t *testing.T) {
	bs, srv := newBridgeServer(t)
	c, err := New(srv.URL, NewMemoryTokenStore())
	require.NoError(t, err)

	res, err := c.Do(context.Background(), http.MethodPost, "/api/denied", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	// Re-login succeeded but the retry was rejected too: the caller sees
	// the ORIGINAL failing response, and recovery stopped after one retry.
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "1", res.Header.Get("X-Attempt"))
	assert.EqualValues(t, 2, bs.attempts.Load(), "bounded to one retry")
	assert.EqualValues(t, 1, bs.logins.Load())
}

func TestLogoutClearsTokenBeforeNetworkCall(t *testing.T) {
	_, srv := newBridgeServer(t)
	store := NewMemoryTokenStore()
	c, err := New(srv.URL, store)
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background()))
	require.NotEmpty(t, store.Load())

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, store.Load())
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/csrf"
	store := NewFileTokenStore(path)

	assert.Empty(t, store.Load())
	store.Save("abc")
	assert.Equal(t, "abc", store.Load())
	store.Clear()
	assert.Empty(t, store.Load())
}
