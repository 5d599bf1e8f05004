package store

import "errors"

// Sentinel errors for store-level facts. Implementations return these
// (optionally wrapped) so stage code can branch without knowing which
// backend produced them.
//
// ErrUnavailable marks the condition the retry policy acts on: the router
// endpoint cannot be reached or an operation timed out. A batch that fails
// with it is retried with bounded backoff before the stage gives up.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("store unavailable")
)
