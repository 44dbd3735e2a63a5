package handle

import "errors"

// Sentinel errors for the handle package.
var (
	ErrNilHandle    = errors.New("handle: null handle")
	ErrStale        = errors.New("handle: stale or unknown handle")
	ErrKindMismatch = errors.New("handle: wrong handle kind")
	ErrOwned        = errors.New("handle: handle is owned by a parent")
	ErrExhausted    = errors.New("handle: registry capacity exhausted")
)
