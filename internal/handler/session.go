package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/readory/readory/internal/apierr"
	"github.com/readory/readory/internal/config"
	"github.com/readory/readory/internal/middleware"
	"github.com/readory/readory/internal/session"
)

// SessionHandler mints and destroys browser sessions.  A session is the
// cookie-side identity used to gate mutating API routes; it is deliberately
// separate from the bearer-token identity used by the realtime gateway.
type SessionHandler struct {
	Cfg   config.Config
	Store session.Store
}

func NewSessionHandler(cfg config.Config, store session.Store) *SessionHandler {
	return &SessionHandler{Cfg: cfg, Store: store}
}

// MaxAge returns the configured session lifetime.
func (h *SessionHandler) MaxAge() time.Duration {
	return time.Duration(h.Cfg.SessionTTLHrs) * time.Hour
}

// Login creates a fresh session: a new random identifier goes out as an
// HttpOnly SameSite=Strict cookie and the paired CSRF token goes out in the
// response body only.  The split is the whole anti-CSRF property — a forged
// cross-site request can carry the cookie but cannot read or attach the
// token.  Calling login again mints an independent session; earlier sessions
// stay valid until their own expiry.
func (h *SessionHandler) Login(c echo.Context) error {
	s, err := session.New()
	if err != nil {
		return apierr.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.Put(ctx, s); err != nil {
		return apierr.Respond(c, err)
	}

	c.SetCookie(middleware.SessionCookie(s.ID, h.MaxAge(), h.Cfg.IsProd()))
	return c.JSON(http.StatusOK, echo.Map{"csrfToken": s.CSRFToken})
}

// Logout deletes the server-side record for the cookie's session and clears
// the cookie.  It is idempotent: no cookie, an unknown id or a repeated call
// all answer 204.
func (h *SessionHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Store.Delete(ctx, cookie.Value); err != nil {
			return apierr.Respond(c, err)
		}
	}
	c.SetCookie(middleware.ExpiredSessionCookie(h.Cfg.IsProd()))
	return c.NoContent(http.StatusNoContent)
}

// RotateCSRF issues a fresh CSRF token for the current session and returns
// it via the X-New-CSRF-Token response header.  The client bridge treats
// whatever value the server last sent as the source of truth.  Rotation is
// last-write-wins when two requests race for the same session.
func (h *SessionHandler) RotateCSRF(c echo.Context) error {
	s, ok := c.Get("session").(session.Session)
	if !ok {
		return apierr.Respond(c, apierr.SessionExpired())
	}
	rotated, err := s.RotateCSRF()
	if err != nil {
		return apierr.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.Put(ctx, rotated); err != nil {
		return apierr.Respond(c, err)
	}

	c.Response().Header().Set(middleware.NewCSRFHeaderName, rotated.CSRFToken)
	return c.NoContent(http.StatusNoContent)
}
