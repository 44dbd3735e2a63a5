package abi

import (
	"errors"
	"fmt"

	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// Status is the result code of every C entry point. The numeric values
// are part of the binary contract.
type Status int32

const (
	StatusOK Status = iota
	StatusNullHandle
	StatusStaleHandle
	StatusWrongKind
	StatusOwned
	StatusInvalidArgument
	StatusInvalidParameters
	StatusInvalidRetention
	StatusInvalidMemoryState
	StatusInvalidRating
	StatusBufferTooSmall
	StatusExhausted
	StatusInternal
)

var statusMessages = [...]string{
	StatusOK:                 "ok",
	StatusNullHandle:         "null handle",
	StatusStaleHandle:        "stale or unknown handle",
	StatusWrongKind:          "handle refers to a different kind of object",
	StatusOwned:              "handle is owned by another handle",
	StatusInvalidArgument:    "invalid argument",
	StatusInvalidParameters:  "invalid parameters",
	StatusInvalidRetention:   "desired retention must be in (0, 1)",
	StatusInvalidMemoryState: "invalid memory state",
	StatusInvalidRating:      "rating must be 1 (again) to 4 (easy)",
	StatusBufferTooSmall:     "buffer too small",
	StatusExhausted:          "handle capacity exhausted",
	StatusInternal:           "internal error",
}

// Message returns a short description of s.
func (s Status) Message() string {
	if s >= 0 && int(s) < len(statusMessages) {
		return statusMessages[s]
	}
	return "unknown status"
}

func (s Status) String() string {
	return fmt.Sprintf("%s (%d)", s.Message(), int32(s))
}

// Statuses lists every defined status in numeric order.
func Statuses() []Status {
	out := make([]Status, len(statusMessages))
	for i := range out {
		out[i] = Status(i)
	}
	return out
}

// Sentinel errors raised by the boundary itself.
var (
	ErrInvalidArgument = errors.New("abi: invalid argument")
	ErrBufferTooSmall  = errors.New("abi: buffer too small")
	ErrInternal        = errors.New("abi: internal error")
)

// StatusOf maps an error to the status reported across the boundary.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, handle.ErrNilHandle):
		return StatusNullHandle
	case errors.Is(err, handle.ErrStale):
		return StatusStaleHandle
	case errors.Is(err, handle.ErrKindMismatch):
		return StatusWrongKind
	case errors.Is(err, handle.ErrOwned):
		return StatusOwned
	case errors.Is(err, handle.ErrExhausted):
		return StatusExhausted
	case errors.Is(err, engine.ErrInvalidParameters):
		return StatusInvalidParameters
	case errors.Is(err, engine.ErrInvalidRetention):
		return StatusInvalidRetention
	case errors.Is(err, engine.ErrInvalidMemoryState):
		return StatusInvalidMemoryState
	case errors.Is(err, engine.ErrInvalidRating):
		return StatusInvalidRating
	case errors.Is(err, ErrBufferTooSmall):
		return StatusBufferTooSmall
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	default:
		return StatusInternal
	}
}
