package apperrors

import "errors"

// Sentinel errors returned by the service layer. Handlers translate them
// to HTTP status codes with errors.Is; anything unwrapped maps to 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
