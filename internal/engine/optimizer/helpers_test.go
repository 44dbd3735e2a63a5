package optimizer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sky-flux/flux-ffi/internal/engine"
)

const epsilonOpt = 1e-4

func assertFloatOpt(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilonOpt {
		t.Errorf("%s = %.6f, want %.6f (diff %.6f)", name, got, want, math.Abs(got-want))
	}
}

// generateSyntheticItems simulates review histories under DefaultParameters.
// Each card is reviewed at its scheduled interval with a rating drawn from
// the predicted retrievability, and expanded into one item per review
// after the first (the history up to and including that review).
func generateSyntheticItems(numCards, reviewsPerCard int, seed int64) []engine.Item {
	rng := rand.New(rand.NewSource(seed))
	e, _ := engine.New(nil)

	var items []engine.Item
	for i := 0; i < numCards; i++ {
		var reviews []engine.Review
		var cur *engine.MemoryState
		var delta uint32

		for j := 0; j < reviewsPerCard; j++ {
			recalled := true
			if cur != nil {
				r, _ := e.Retrievability(*cur, float64(delta))
				recalled = rng.Float64() <= r
			}
			rating := engine.Again
			if recalled {
				p := rng.Float64()
				switch {
				case p < 0.05:
					rating = engine.Hard
				case p < 0.85:
					rating = engine.Good
				default:
					rating = engine.Easy
				}
			}

			reviews = append(reviews, engine.Review{Rating: rating, DeltaT: delta})
			if j > 0 {
				items = append(items, engine.Item{Reviews: append([]engine.Review(nil), reviews...)})
			}

			states, _ := e.NextStates(cur, 0.9, delta)
			next, _ := states.Get(rating)
			m := next.Memory
			cur = &m
			delta = uint32(math.Max(1, math.Round(next.Interval)))
		}
	}
	return items
}

func item(reviews ...engine.Review) engine.Item {
	return engine.Item{Reviews: reviews}
}

func rv(r engine.Rating, deltaT uint32) engine.Review {
	return engine.Review{Rating: r, DeltaT: deltaT}
}
