package service

import "errors"

// Error taxonomy surfaced by submit/review operations. Handlers distinguish
// these with errors.Is to pick the HTTP status; everything else is a 500.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrFinalized  = errors.New("finalized by admin, no further action allowed")
	ErrValidation = errors.New("validation failed")
)
