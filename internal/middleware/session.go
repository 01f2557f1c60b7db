package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "crypto/subtle" // constant-time comparison for the CSRF check
    "net/http"      // cookie handling
    "time"          // session age evaluation

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/readory/readory/internal/apierr"  // uniform error envelope
    "github.com/readory/readory/internal/session" // session store abstraction
)

// Names shared between the session handlers, this middleware and the client
// bridge.  The cookie carries only the opaque session id; the CSRF token is
// never set as a cookie.
const (
    SessionCookieName = "sessionId"
    CSRFHeaderName    = "X-CSRF-Token"
    NewCSRFHeaderName = "X-New-CSRF-Token"
)

// RequireSession returns an Echo middleware that gates mutating endpoints
// behind a valid, non-expired browser session and a matching CSRF header.
// Two conditions are checked in order:
//
//  1. the sessionId cookie must reference a stored session younger than
//     maxAge, otherwise 401 SESSION_EXPIRED;
//  2. the X-CSRF-Token header must exactly equal the session's current
//     token, otherwise 403 INVALID_CSRF.
//
// Expired records are denied but not deleted; the store has no sweep and
// relies on lazy detection here.  On success the session is stored in the
// Echo context under "session" for handlers that want it.
func RequireSession(store session.Store, maxAge time.Duration) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            cookie, err := c.Cookie(SessionCookieName)
            if err != nil || cookie.Value == "" {
                return apierr.Respond(c, apierr.SessionExpired())
            }
            s, ok, err := store.Get(c.Request().Context(), cookie.Value)
            if err != nil {
                return apierr.Respond(c, err)
            }
            if !ok || s.Expired(time.Now().UTC(), maxAge) {
                return apierr.Respond(c, apierr.SessionExpired())
            }
            // The CSRF check only runs for live sessions: an expired session
            // reports SESSION_EXPIRED regardless of header correctness.
            header := c.Request().Header.Get(CSRFHeaderName)
            if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(s.CSRFToken)) != 1 {
                return apierr.Respond(c, apierr.InvalidCSRF())
            }
            c.Set("session", s)
            return next(c)
        }
    }
}

// SessionCookie builds the sessionId cookie for a freshly created session.
// HttpOnly keeps scripts away from the identifier and SameSite=Strict stops
// the browser attaching it to cross-site navigations.  Secure is only set in
// production so local HTTP development works.
func SessionCookie(id string, maxAge time.Duration, secure bool) *http.Cookie {
    return &http.Cookie{
        Name:     SessionCookieName,
        Value:    id,
        Path:     "/",
        MaxAge:   int(maxAge / time.Second),
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteStrictMode,
    }
}

// ExpiredSessionCookie instructs the browser to drop the session cookie.
func ExpiredSessionCookie(secure bool) *http.Cookie {
    return &http.Cookie{
        Name:     SessionCookieName,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteStrictMode,
    }
}
