package engine

import (
	"fmt"
	"math"
)

// MemoryState summarizes the estimated retention of an item.
type MemoryState struct {
	Stability  float64 `json:"stability" yaml:"stability"`
	Difficulty float64 `json:"difficulty" yaml:"difficulty"`
}

// Validate reports ErrInvalidMemoryState when stability is not a positive
// finite number or difficulty lies outside [1, 10].
func (m MemoryState) Validate() error {
	if math.IsNaN(m.Stability) || math.IsInf(m.Stability, 0) || m.Stability <= 0 {
		return fmt.Errorf("%w: stability %v", ErrInvalidMemoryState, m.Stability)
	}
	if math.IsNaN(m.Difficulty) || m.Difficulty < minDifficulty || m.Difficulty > maxDifficulty {
		return fmt.Errorf("%w: difficulty %v", ErrInvalidMemoryState, m.Difficulty)
	}
	return nil
}

// ItemState is a memory state together with the interval, in days, after
// which recall probability falls to the desired retention.
type ItemState struct {
	Memory   MemoryState `json:"memory" yaml:"memory"`
	Interval float64     `json:"interval" yaml:"interval"`
}

// NextStates holds the outcome of each of the four ratings.
type NextStates struct {
	Again ItemState `json:"again" yaml:"again"`
	Hard  ItemState `json:"hard" yaml:"hard"`
	Good  ItemState `json:"good" yaml:"good"`
	Easy  ItemState `json:"easy" yaml:"easy"`
}

// Get returns the state for the given rating.
func (n NextStates) Get(r Rating) (ItemState, error) {
	switch r {
	case Again:
		return n.Again, nil
	case Hard:
		return n.Hard, nil
	case Good:
		return n.Good, nil
	case Easy:
		return n.Easy, nil
	default:
		return ItemState{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
}

func (n *NextStates) set(r Rating, s ItemState) {
	switch r {
	case Again:
		n.Again = s
	case Hard:
		n.Hard = s
	case Good:
		n.Good = s
	case Easy:
		n.Easy = s
	}
}
