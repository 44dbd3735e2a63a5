package engine

import (
	"fmt"
	"math"
)

// Engine computes FSRS-6 memory transitions for a fixed parameter vector.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	algo algo
}

// New builds an Engine from a caller-supplied parameter vector.
// See FillParameters for accepted lengths; nil or empty selects the defaults.
func New(params []float64) (*Engine, error) {
	w, err := FillParameters(params)
	if err != nil {
		return nil, err
	}
	return &Engine{algo: newAlgo(w)}, nil
}

// NewUnchecked builds an Engine without bounds validation. The optimizer
// uses it to probe parameters a gradient step away from a bound.
func NewUnchecked(p [NumParameters]float64) *Engine {
	return &Engine{algo: newAlgo(p)}
}

// Parameters returns the effective 21-element parameter vector.
func (e *Engine) Parameters() [NumParameters]float64 {
	return e.algo.w
}

// NextStates returns the state reached by each rating from prior after
// daysElapsed days. A nil prior means the item has never been reviewed.
func (e *Engine) NextStates(prior *MemoryState, desiredRetention float64, daysElapsed uint32) (NextStates, error) {
	if !(desiredRetention > 0 && desiredRetention < 1) {
		return NextStates{}, fmt.Errorf("%w: %v", ErrInvalidRetention, desiredRetention)
	}
	if prior != nil {
		if err := prior.Validate(); err != nil {
			return NextStates{}, err
		}
	}

	var out NextStates
	for _, r := range Ratings {
		var m MemoryState
		if prior == nil {
			m = e.initState(r)
		} else {
			m = e.step(*prior, daysElapsed, r)
		}
		out.set(r, ItemState{
			Memory:   m,
			Interval: e.algo.nextInterval(m.Stability, desiredRetention),
		})
	}
	return out, nil
}

// MemoryState replays the item's reviews on top of start and returns the
// accumulated state. It returns nil when start is nil and the item has no
// reviews.
func (e *Engine) MemoryState(item Item, start *MemoryState) (*MemoryState, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if start != nil {
		if err := start.Validate(); err != nil {
			return nil, err
		}
	}
	return e.replay(item.Reviews, start), nil
}

// Retrievability returns the probability of recall daysElapsed days after
// the review that produced m.
func (e *Engine) Retrievability(m MemoryState, daysElapsed float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if daysElapsed < 0 || math.IsNaN(daysElapsed) {
		return 0, fmt.Errorf("engine: negative elapsed days %v", daysElapsed)
	}
	return e.algo.retrievability(daysElapsed, m.Stability), nil
}

// PredictRecall replays the item's history and returns the predicted
// retrievability at its target review. ok is false for items without
// a history to replay.
func (e *Engine) PredictRecall(item Item) (r float64, ok bool) {
	history := item.History()
	if len(history) == 0 {
		return 0, false
	}
	m := e.replay(history, nil)
	target, _ := item.Target()
	return e.algo.retrievability(float64(target.DeltaT), m.Stability), true
}

func (e *Engine) replay(reviews []Review, start *MemoryState) *MemoryState {
	var cur *MemoryState
	if start != nil {
		s := *start
		cur = &s
	}
	for _, rv := range reviews {
		var next MemoryState
		if cur == nil {
			next = e.initState(rv.Rating)
		} else {
			next = e.step(*cur, rv.DeltaT, rv.Rating)
		}
		cur = &next
	}
	return cur
}

// initState is the memory state after the first review of a fresh item.
func (e *Engine) initState(r Rating) MemoryState {
	return MemoryState{
		Stability:  e.algo.initStability(r),
		Difficulty: e.algo.initDifficulty(r, true),
	}
}

// step applies one review to m. Same-day reviews use the short-term
// stability formula; later reviews go through retrievability.
func (e *Engine) step(m MemoryState, deltaT uint32, r Rating) MemoryState {
	var s float64
	if deltaT == 0 {
		s = e.algo.shortTermStability(m.Stability, r)
	} else {
		ret := e.algo.retrievability(float64(deltaT), m.Stability)
		s = e.algo.nextStability(m.Difficulty, m.Stability, ret, r)
	}
	return MemoryState{
		Stability:  s,
		Difficulty: e.algo.nextDifficulty(m.Difficulty, r),
	}
}
