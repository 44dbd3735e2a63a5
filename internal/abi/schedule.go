package abi

import (
	"fmt"
	"math"

	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// NextStates computes the outcome of each rating from the memory state
// behind ms after daysElapsed days. A null ms means a fresh item.
func (rt *Runtime) NextStates(eh, ms Handle, desiredRetention float32, daysElapsed uint32) (Handle, error) {
	e, err := rt.engine(eh)
	if err != nil {
		return handle.Nil, err
	}
	prior, err := rt.optionalMemoryState(ms)
	if err != nil {
		return handle.Nil, err
	}
	ns, err := e.NextStates(prior, float64(desiredRetention), daysElapsed)
	if err != nil {
		return handle.Nil, err
	}
	return rt.insert(handle.KindNextStates, ns)
}

// NextStatesGet returns a copy of the outcome for the given rating
// ordinal. It may be called any number of times.
func (rt *Runtime) NextStatesGet(h Handle, rating uint32) (ItemState, error) {
	r, err := engine.RatingFromOrdinal(rating)
	if err != nil {
		return ItemState{}, err
	}
	ns, err := handle.Lookup[engine.NextStates](rt.reg, h, handle.KindNextStates)
	if err != nil {
		return ItemState{}, err
	}
	s, err := ns.Get(r)
	if err != nil {
		return ItemState{}, err
	}
	return itemStateFromEngine(s), nil
}

// NextStatesFree releases a next-states value.
func (rt *Runtime) NextStatesFree(h Handle) error {
	return rt.release(h, handle.KindNextStates)
}

// MemoryStateFromItem replays the item's reviews on top of start (null
// for a fresh item) and returns the resulting memory state. An empty
// item with no start has no memory state and is rejected.
func (rt *Runtime) MemoryStateFromItem(eh, ih, start Handle) (Handle, error) {
	e, err := rt.engine(eh)
	if err != nil {
		return handle.Nil, err
	}
	it, err := rt.engineItem(ih)
	if err != nil {
		return handle.Nil, err
	}
	prior, err := rt.optionalMemoryState(start)
	if err != nil {
		return handle.Nil, err
	}
	m, err := e.MemoryState(it, prior)
	if err != nil {
		return handle.Nil, err
	}
	if m == nil {
		return handle.Nil, fmt.Errorf("%w: empty item without a starting state", ErrInvalidArgument)
	}
	return rt.insert(handle.KindMemoryState, *m)
}

// Retrievability returns the recall probability daysElapsed days after
// the review that produced the memory state behind ms.
func (rt *Runtime) Retrievability(eh, ms Handle, daysElapsed uint32) (float32, error) {
	e, err := rt.engine(eh)
	if err != nil {
		return 0, err
	}
	m, err := rt.memoryState(ms)
	if err != nil {
		return 0, err
	}
	r, err := e.Retrievability(m, float64(daysElapsed))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: retrievability is NaN", ErrInternal)
	}
	return float32(r), nil
}
