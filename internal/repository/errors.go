// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrInvalidRefresh covers every internal refresh-token fault
// (missing row, already revoked, expired) that must surface as a single
// unauthorized outcome, while ErrNotFound signals that a referenced
// exam or session does not exist.
package repository

import "errors"

// ErrEmailExists is returned when registration collides with an
// existing account. Handlers should translate this into an HTTP 409
// response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a referenced record (exam, result,
// session) is absent or not owned by the caller. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrInvalidRefresh is returned when a refresh token cannot be rotated
// or validated: the stored record is missing, already revoked, or past
// its expiry. The distinct causes are logged internally but share one
// externally observable unauthorized outcome.
var ErrInvalidRefresh = errors.New("invalid refresh token")
