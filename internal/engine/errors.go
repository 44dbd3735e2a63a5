package engine

import "errors"

// Sentinel errors for the engine package.
// Use errors.Is to check: errors.Is(err, engine.ErrInvalidRating)
var (
	ErrInvalidRating      = errors.New("engine: invalid rating")
	ErrInvalidParameters  = errors.New("engine: invalid parameters")
	ErrInvalidRetention   = errors.New("engine: desired retention out of range (0, 1)")
	ErrInvalidMemoryState = errors.New("engine: invalid memory state")
)
