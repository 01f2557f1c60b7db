package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/readory/readory/internal/handler"    // import the handlers that implement business logic
	"github.com/readory/readory/internal/middleware" // import middleware for sessions, bearer auth and rate limiting
	"github.com/readory/readory/internal/realtime"   // import the websocket discussion gateway
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this to verify the service
	// is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the identity-provider routes.  Unauthenticated
// operations live under /v1/auth, while bearer-protected endpoints live
// under /v1.  The optional limiter shields the credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	// Bearer-protected endpoints.  The JWT here is the same credential the
	// realtime gateway verifies on its handshake.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterSession registers the browser-session endpoints and the protected
// group routes.  /api/login and /api/logout manage the cookie+CSRF pair;
// every mutating /api route below them is gated by RequireSession on top of
// the bearer identity, so a forged cross-site request fails the CSRF check
// even when the browser attaches the cookie automatically.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler, g *handler.GroupHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	if limiter != nil {
		e.POST("/api/login", s.Login, limiter)
	} else {
		e.POST("/api/login", s.Login)
	}
	e.POST("/api/logout", s.Logout)

	api := e.Group("/api")
	api.Use(middleware.JWTAuth(jwtSecret))

	// Reads need only the bearer identity.
	api.GET("/groups/:id/messages", g.History)

	// Mutations additionally need the live session and matching CSRF header.
	mut := api.Group("")
	mut.Use(middleware.RequireSession(s.Store, s.MaxAge()))
	mut.POST("/session/rotate", s.RotateCSRF)
	mut.POST("/groups", g.Create)
	mut.POST("/groups/:id/join", g.Join)
	mut.POST("/groups/:id/leave", g.Leave)
}

// RegisterRealtime mounts the websocket gateway on the discussions path.
// The gateway does its own handshake authentication, so no Echo middleware
// wraps it.
func RegisterRealtime(e *echo.Echo, gw *realtime.Gateway) {
	e.GET("/discussions", echo.WrapHandler(gw))
}
