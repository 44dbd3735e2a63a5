package abi

import "github.com/sky-flux/flux-ffi/internal/engine"

// Shape translation between the fixed-layout records and engine types.
// Nothing here validates or substitutes defaults.

func memoryToEngine(m MemoryState) engine.MemoryState {
	return engine.MemoryState{
		Stability:  float64(m.Stability),
		Difficulty: float64(m.Difficulty),
	}
}

func memoryFromEngine(m engine.MemoryState) MemoryState {
	return MemoryState{
		Stability:  float32(m.Stability),
		Difficulty: float32(m.Difficulty),
	}
}

func itemStateFromEngine(s engine.ItemState) ItemState {
	return ItemState{
		Memory:   memoryFromEngine(s.Memory),
		Interval: float32(s.Interval),
	}
}

func reviewToEngine(r ReviewRecord) engine.Review {
	return engine.Review{Rating: engine.Rating(r.Rating), DeltaT: r.DeltaT}
}

func reviewFromEngine(r engine.Review) ReviewRecord {
	return ReviewRecord{Rating: uint32(r.Rating), DeltaT: r.DeltaT}
}

// reviewsToEngine copies src into a newly allocated slice.
func reviewsToEngine(src []ReviewRecord) []engine.Review {
	out := make([]engine.Review, len(src))
	for i, r := range src {
		out[i] = reviewToEngine(r)
	}
	return out
}

func paramsToEngine(src []float32) []float64 {
	if len(src) == 0 {
		return nil
	}
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}
