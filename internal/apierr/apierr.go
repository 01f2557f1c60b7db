// Package apierr defines the uniform JSON error envelope returned by every
// API failure: {error, code, details?}.  Handlers and middleware build
// tagged errors here instead of throwing ad hoc maps, and the envelope is
// produced in exactly one place so internal details never leak to clients.
package apierr

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Error codes shared with the client bridge.  SESSION_EXPIRED and
// INVALID_CSRF are the two codes the bridge treats as recoverable by
// re-establishing a session.
const (
    CodeSessionExpired  = "SESSION_EXPIRED"
    CodeInvalidCSRF     = "INVALID_CSRF"
    CodeAuthRequired    = "AUTH_REQUIRED"
    CodeInvalidToken    = "INVALID_TOKEN"
    CodeValidationError = "VALIDATION_ERROR"
    CodeNotFound        = "NOT_FOUND"
    CodeConflict        = "CONFLICT"
    CodeInternal        = "INTERNAL_ERROR"
)

// E is a tagged API error carrying the HTTP status, a stable machine code
// and a human message.  Details is an optional opaque payload.
type E struct {
    Status  int    // HTTP status to respond with
    Code    string // stable machine-readable code
    Message string // human-readable message, safe for clients
    Details any    // optional extra payload
}

// Error implements the error interface.
func (e *E) Error() string { return e.Code + ": " + e.Message }

// New builds a tagged error.
func New(status int, code, message string) *E {
    return &E{Status: status, Code: code, Message: message}
}

// envelope is the wire form of an API failure.
type envelope struct {
    Error   string `json:"error"`
    Code    string `json:"code"`
    Details any    `json:"details,omitempty"`
}

// Respond writes the error envelope for err.  Tagged errors render as-is;
// anything else becomes a generic 500 so stack traces and driver messages
// stay server-side.
func Respond(c echo.Context, err error) error {
    if e, ok := err.(*E); ok {
        return c.JSON(e.Status, envelope{Error: e.Message, Code: e.Code, Details: e.Details})
    }
    return c.JSON(http.StatusInternalServerError, envelope{
        Error: "internal server error",
        Code:  CodeInternal,
    })
}

// Convenience constructors for the codes used on the session boundary.

// SessionExpired is returned when no live session backs the request cookie.
func SessionExpired() *E {
    return New(http.StatusUnauthorized, CodeSessionExpired, "session expired or missing")
}

// InvalidCSRF is returned when the X-CSRF-Token header is absent or does not
// match the session's current token.
func InvalidCSRF() *E {
    return New(http.StatusForbidden, CodeInvalidCSRF, "invalid csrf token")
}
