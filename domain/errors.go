package domain

import "errors"

// Error taxonomy shared across the service. Callers wrap these with
// fmt.Errorf("...: %w", ...) and check them with errors.Is; the HTTP layer
// maps them to status codes.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrToolExecution = errors.New("tool execution failed")
)
