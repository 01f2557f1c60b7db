package middleware

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/readory/readory/internal/apierr"
    "github.com/readory/readory/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the authenticated user id into the request context.  The
// provided secret must match the one used when issuing tokens.  This is the
// identity-provider trust domain: it is entirely separate from the cookie
// session checked by RequireSession, and the two are never conflated because
// their failure and refresh semantics differ.  Handlers behind this
// middleware read the identity via `c.Get("user_id")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return apierr.Respond(c, apierr.New(http.StatusUnauthorized, apierr.CodeAuthRequired, "missing bearer token"))
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            uid, err := utils.VerifyAccessToken(secret, raw)
            if err != nil {
                return apierr.Respond(c, apierr.New(http.StatusUnauthorized, apierr.CodeInvalidToken, "invalid token"))
            }

            c.Set("user_id", uid)
            return next(c)
        }
    }
}

// CurrentUserID reads the authenticated user id placed in the context by
// JWTAuth.  The second return value is false when the route was reached
// without the middleware (a programming error, not a client one).
func CurrentUserID(c echo.Context) (uint64, bool) {
    uid, ok := c.Get("user_id").(uint64)
    return uid, ok
}
