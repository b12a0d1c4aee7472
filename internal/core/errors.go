package core

import "errors"

// Sentinel errors the web adapter maps to HTTP status codes.
// Services wrap these with context via fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the record's current status does not
	// permit the requested lifecycle change (e.g. converting an
	// already-converted quote).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientStock means a guarded stock decrement would have
	// taken a product below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidInput means the caller supplied data that fails
	// validation. Anything not wrapping a sentinel is treated as an
	// internal failure by the web adapter.
	ErrInvalidInput = errors.New("invalid input")
)
