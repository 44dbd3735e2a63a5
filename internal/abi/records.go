package abi

import (
	"fmt"

	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// item is the value behind an item handle. Its reviews live in a child
// history handle so releasing the item releases them too.
type item struct {
	history Handle
}

// ItemNew copies reviews into a new item. The slice is not retained.
func (rt *Runtime) ItemNew(reviews []ReviewRecord) (Handle, error) {
	for i, r := range reviews {
		if _, err := engine.RatingFromOrdinal(r.Rating); err != nil {
			return handle.Nil, fmt.Errorf("review %d: %w", i, err)
		}
	}

	h, err := rt.insert(handle.KindItem, &item{})
	if err != nil {
		return handle.Nil, err
	}
	hist, err := rt.reg.Adopt(h, handle.KindHistory, reviewsToEngine(reviews))
	if err != nil {
		// Cannot fail: h was just created and is a root.
		_ = rt.reg.Release(h, handle.KindItem)
		return handle.Nil, err
	}
	it, _ := handle.Lookup[*item](rt.reg, h, handle.KindItem)
	it.history = hist
	return h, nil
}

// ItemLen returns the number of reviews in an item.
func (rt *Runtime) ItemLen(h Handle) (int, error) {
	reviews, err := rt.itemReviews(h)
	if err != nil {
		return 0, err
	}
	return len(reviews), nil
}

// ItemReviews copies the item's reviews into dst and returns the number
// written. When dst is too short nothing is written and the required
// length is returned with ErrBufferTooSmall.
func (rt *Runtime) ItemReviews(h Handle, dst []ReviewRecord) (int, error) {
	reviews, err := rt.itemReviews(h)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(reviews) {
		return len(reviews), fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, len(reviews), len(dst))
	}
	for i, r := range reviews {
		dst[i] = reviewFromEngine(r)
	}
	return len(reviews), nil
}

// ItemFree releases an item and its history.
func (rt *Runtime) ItemFree(h Handle) error {
	return rt.release(h, handle.KindItem)
}

// engineItem returns the item as an engine value. The review slice is
// shared with the registry and must not be modified.
func (rt *Runtime) engineItem(h Handle) (engine.Item, error) {
	reviews, err := rt.itemReviews(h)
	if err != nil {
		return engine.Item{}, err
	}
	return engine.Item{Reviews: reviews}, nil
}

func (rt *Runtime) itemReviews(h Handle) ([]engine.Review, error) {
	it, err := handle.Lookup[*item](rt.reg, h, handle.KindItem)
	if err != nil {
		return nil, err
	}
	return handle.Lookup[[]engine.Review](rt.reg, it.history, handle.KindHistory)
}

// ReviewNew creates a standalone review record.
func (rt *Runtime) ReviewNew(rating, deltaT uint32) (Handle, error) {
	r, err := engine.RatingFromOrdinal(rating)
	if err != nil {
		return handle.Nil, err
	}
	return rt.insert(handle.KindReview, engine.Review{Rating: r, DeltaT: deltaT})
}

// ReviewGet returns a copy of the review.
func (rt *Runtime) ReviewGet(h Handle) (ReviewRecord, error) {
	r, err := handle.Lookup[engine.Review](rt.reg, h, handle.KindReview)
	if err != nil {
		return ReviewRecord{}, err
	}
	return reviewFromEngine(r), nil
}

// ReviewFree releases a review.
func (rt *Runtime) ReviewFree(h Handle) error {
	return rt.release(h, handle.KindReview)
}

// MemoryStateNew stores a caller-supplied memory state. It is validated
// when used, not here, so callers may round-trip any pair of values.
func (rt *Runtime) MemoryStateNew(stability, difficulty float32) (Handle, error) {
	return rt.insert(handle.KindMemoryState, memoryToEngine(MemoryState{
		Stability:  stability,
		Difficulty: difficulty,
	}))
}

// MemoryStateGet returns a copy of the memory state.
func (rt *Runtime) MemoryStateGet(h Handle) (MemoryState, error) {
	m, err := rt.memoryState(h)
	if err != nil {
		return MemoryState{}, err
	}
	return memoryFromEngine(m), nil
}

// MemoryStateFree releases a memory state.
func (rt *Runtime) MemoryStateFree(h Handle) error {
	return rt.release(h, handle.KindMemoryState)
}

func (rt *Runtime) memoryState(h Handle) (engine.MemoryState, error) {
	return handle.Lookup[engine.MemoryState](rt.reg, h, handle.KindMemoryState)
}

// optionalMemoryState resolves h, treating the null handle as absent.
func (rt *Runtime) optionalMemoryState(h Handle) (*engine.MemoryState, error) {
	if h == handle.Nil {
		return nil, nil
	}
	m, err := rt.memoryState(h)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
