// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the realtime gateway to distinguish between different
// failure scenarios. For example, ErrConflict signals that an insert
// cannot proceed because an equivalent record already exists (e.g.
// joining a group twice).
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert cannot be performed because
// of conflicting state, such as adding a membership row that already
// exists. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
