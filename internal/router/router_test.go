package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readory/readory/internal/bridge"
	"github.com/readory/readory/internal/config"
	"github.com/readory/readory/internal/handler"
	"github.com/readory/readory/internal/session"
	"github.com/readory/readory/internal/utils"
)

const routerTestSecret = "router-test-secret"

// sessionTestServer mounts the real session routes on an httptest server.
// The group handler is wired with nil repositories: its routes are
// registered but never exercised here.
func sessionTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{Env: "test", JWTSecret: routerTestSecret, SessionTTLHrs: 24}

	e := echo.New()
	RegisterSession(e, handler.NewSessionHandler(cfg, session.NewMemoryStore()), handler.NewGroupHandler(nil, nil), cfg.JWTSecret, nil)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func bridgeClient(t *testing.T, srv *httptest.Server) *bridge.Client {
	t.Helper()
	c, err := bridge.New(srv.URL, bridge.NewMemoryTokenStore())
	require.NoError(t, err)
	return c
}

// A bridge carrying both identities (bearer + session) can drive the
// protected rotation route end to end: the only acceptable failure modes on
// these routes are the two the bridge knows how to recover from.
func TestBridgeDrivesProtectedRotateRoute(t *testing.T) {
	srv := sessionTestServer(t)
	c := bridgeClient(t, srv)

	tok, err := utils.NewAccessToken(routerTestSecret, 7, 5)
	require.NoError(t, err)
	c.Bearer = tok.Token

	ctx := context.Background()
	require.NoError(t, c.Login(ctx))
	before := c.Tokens.Load()
	require.NotEmpty(t, before)

	res, err := c.Do(ctx, http.MethodPost, "/api/session/rotate", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	after := c.Tokens.Load()
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after, "rotation replaced the stored token")

	// The rotated token is the live one: a second rotation succeeds with it
	// on the first attempt (no recovery fallback masking a stale token).
	res2, err := c.Do(ctx, http.MethodPost, "/api/session/rotate", nil)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNoContent, res2.StatusCode)
}

// Without a bearer the route still refuses: session+CSRF prove the request
// came from a genuine client, not who is making it.
func TestProtectedRouteStillRequiresBearer(t *testing.T) {
	srv := sessionTestServer(t)
	c := bridgeClient(t, srv)

	ctx := context.Background()
	require.NoError(t, c.Login(ctx))

	res, err := c.Do(ctx, http.MethodPost, "/api/session/rotate", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
