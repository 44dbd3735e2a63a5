package optimizer

import "github.com/sky-flux/flux-ffi/internal/engine"

// prepare keeps the items that can contribute to the loss and whose
// history fits in maxSeqLen reviews. The returned slice shares review
// storage with the input; nothing downstream mutates it.
func prepare(items []engine.Item, maxSeqLen int) []engine.Item {
	out := make([]engine.Item, 0, len(items))
	for _, it := range items {
		if !it.Trainable() || len(it.Reviews) > maxSeqLen {
			continue
		}
		if it.Validate() != nil {
			continue
		}
		out = append(out, it)
	}
	return out
}

// label is 0 if the target review was a lapse (Again), 1 otherwise.
func label(it engine.Item) float64 {
	t, _ := it.Target()
	if t.Rating == engine.Again {
		return 0
	}
	return 1
}
