// Package engine implements the FSRS-6 memory model used behind the C
// boundary.
//
// An [Engine] is built from a parameter vector and answers two questions:
// what the memory state and interval would be after each of the four
// ratings ([Engine.NextStates]), and what memory state a review history
// accumulates to ([Engine.MemoryState]). Parameter fitting lives in the
// engine/optimizer subpackage.
//
//	e, err := engine.New(nil) // default parameters
//	if err != nil {
//	    return err
//	}
//	states, err := e.NextStates(nil, 0.9, 0)
//	good := states.Good.Interval
package engine
