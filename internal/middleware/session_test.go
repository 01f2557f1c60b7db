package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readory/readory/internal/session"
)

// invoke runs the RequireSession middleware over a no-op handler and returns
// the recorded response.
func invoke(t *testing.T, store session.Store, maxAge time.Duration, cookie, csrf string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/groups", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	}
	if csrf != "" {
		req.Header.Set(CSRFHeaderName, csrf)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireSession(store, maxAge)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func seedSession(t *testing.T, store session.Store, age time.Duration) session.Session {
	t.Helper()
	s, err := session.New()
	require.NoError(t, err)
	s.CreatedAt = time.Now().UTC().Add(-age)
	require.NoError(t, store.Put(context.Background(), s))
	return s
}

func TestRequireSessionAllowsFreshSessionWithMatchingToken(t *testing.T) {
	store := session.NewMemoryStore()
	s := seedSession(t, store, time.Hour)

	rec := invoke(t, store, 24*time.Hour, s.ID, s.CSRFToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSessionRejectsMissingCookie(t *testing.T) {
	store := session.NewMemoryStore()

	rec := invoke(t, store, 24*time.Hour, "", "whatever")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", errCode(t, rec))
}

func TestRequireSessionRejectsUnknownSession(t *testing.T) {
	store := session.NewMemoryStore()

	rec := invoke(t, store, 24*time.Hour, "deadbeef", "whatever")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", errCode(t, rec))
}

func TestRequireSessionRejectsOldSessionEvenWithCorrectToken(t *testing.T) {
	store := session.NewMemoryStore()
	s := seedSession(t, store, 25*time.Hour)

	// A correct CSRF token cannot save a session past its max age.
	rec := invoke(t, store, 24*time.Hour, s.ID, s.CSRFToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", errCode(t, rec))
}

func TestRequireSessionRejectsBadCSRF(t *testing.T) {
	store := session.NewMemoryStore()
	s := seedSession(t, store, time.Hour)
	other := seedSession(t, store, time.Hour)

	cases := []struct {
		name string
		csrf string
	}{
		{name: "missing header", csrf: ""},
		{name: "wrong value", csrf: "not-the-token"},
		{name: "token of a different session", csrf: other.CSRFToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := invoke(t, store, 24*time.Hour, s.ID, tc.csrf)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "INVALID_CSRF", errCode(t, rec))
		})
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	c := SessionCookie("abc", 24*time.Hour, true)

	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), c.MaxAge)
}

func TestExpiredSessionCookieClears(t *testing.T) {
	c := ExpiredSessionCookie(false)

	assert.Equal(t, SessionCookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}
