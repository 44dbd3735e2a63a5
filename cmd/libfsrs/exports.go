package main

/*
#include "fsrs_types.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/engine"
)

var errNilOut = fmt.Errorf("%w: null output pointer", abi.ErrInvalidArgument)

// nullArray reports a NULL array with a non-zero length.
func nullArray(name string) error {
	return fmt.Errorf("%w: %s is NULL with non-zero length", abi.ErrInvalidArgument, name)
}

// requiredLength reports err, storing n in *written when err says the
// destination was too short. Other failures leave *written untouched.
func requiredLength(written *C.size_t, n int, err error) error {
	if errors.Is(err, abi.ErrBufferTooSmall) {
		*written = C.size_t(n)
	}
	return err
}

//export fsrs_layout_version
func fsrs_layout_version() C.uint32_t {
	return C.uint32_t(abi.LayoutVersion)
}

var (
	messagesOnce sync.Once
	messages     []*C.char
	unknownMsg   *C.char
)

// fsrs_status_message returns a NUL-terminated string that lives for the
// lifetime of the process. The caller must not free it.
//
//export fsrs_status_message
func fsrs_status_message(status C.fsrs_status) *C.char {
	messagesOnce.Do(func() {
		for _, s := range abi.Statuses() {
			messages = append(messages, C.CString(s.Message()))
		}
		unknownMsg = C.CString(abi.Status(-1).Message())
	})
	if status >= 0 && int(status) < len(messages) {
		return messages[status]
	}
	return unknownMsg
}

//export fsrs_live_handles
func fsrs_live_handles() C.uint64_t {
	return C.uint64_t(lib().LiveHandles())
}

// --- engine ---

//export fsrs_engine_new
func fsrs_engine_new(params *C.float, length C.size_t, out *C.fsrs_engine_t) C.fsrs_status {
	return call("fsrs_engine_new", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		var p []float32
		if params != nil && length > 0 {
			p = append(p, unsafe.Slice((*float32)(unsafe.Pointer(params)), int(length))...)
		}
		h, err := rt.EngineNew(p)
		if err != nil {
			return err
		}
		*out = C.fsrs_engine_t(h)
		return nil
	})
}

//export fsrs_engine_free
func fsrs_engine_free(e C.fsrs_engine_t) C.fsrs_status {
	return call("fsrs_engine_free", func(rt *abi.Runtime) error {
		return rt.EngineFree(abi.Handle(e))
	})
}

//export fsrs_engine_parameters
func fsrs_engine_parameters(e C.fsrs_engine_t, out *C.fsrs_parameters_t) C.fsrs_status {
	return call("fsrs_engine_parameters", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		h, err := rt.EngineParameters(abi.Handle(e))
		if err != nil {
			return err
		}
		*out = C.fsrs_parameters_t(h)
		return nil
	})
}

// --- items and reviews ---

//export fsrs_item_new
func fsrs_item_new(reviews *C.fsrs_ReviewRecord, length C.size_t, out *C.fsrs_item_t) C.fsrs_status {
	return call("fsrs_item_new", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		if reviews == nil && length > 0 {
			return nullArray("reviews")
		}
		var recs []abi.ReviewRecord
		if length > 0 {
			recs = reviewRecordsFromC(unsafe.Slice(reviews, int(length)))
		}
		h, err := rt.ItemNew(recs)
		if err != nil {
			return err
		}
		*out = C.fsrs_item_t(h)
		return nil
	})
}

//export fsrs_item_len
func fsrs_item_len(item C.fsrs_item_t, out *C.size_t) C.fsrs_status {
	return call("fsrs_item_len", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		n, err := rt.ItemLen(abi.Handle(item))
		if err != nil {
			return err
		}
		*out = C.size_t(n)
		return nil
	})
}

//export fsrs_item_reviews
func fsrs_item_reviews(item C.fsrs_item_t, dst *C.fsrs_ReviewRecord, capacity C.size_t, written *C.size_t) C.fsrs_status {
	return call("fsrs_item_reviews", func(rt *abi.Runtime) error {
		if written == nil {
			return errNilOut
		}
		if dst == nil && capacity > 0 {
			return nullArray("dst")
		}
		n, err := rt.ItemLen(abi.Handle(item))
		if err != nil {
			return err
		}
		if capacity < C.size_t(n) {
			n = int(capacity)
		}
		buf := make([]abi.ReviewRecord, n)
		n, err = rt.ItemReviews(abi.Handle(item), buf)
		if err != nil {
			return requiredLength(written, n, err)
		}
		if n > 0 {
			// Bound by n, not capacity: capacity is only a caller claim.
			cdst := unsafe.Slice(dst, n)
			for i := range cdst {
				reviewRecordToC(&cdst[i], buf[i])
			}
		}
		*written = C.size_t(n)
		return nil
	})
}

//export fsrs_item_free
func fsrs_item_free(item C.fsrs_item_t) C.fsrs_status {
	return call("fsrs_item_free", func(rt *abi.Runtime) error {
		return rt.ItemFree(abi.Handle(item))
	})
}

//export fsrs_review_new
func fsrs_review_new(rating, deltaT C.uint32_t, out *C.fsrs_review_t) C.fsrs_status {
	return call("fsrs_review_new", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		h, err := rt.ReviewNew(uint32(rating), uint32(deltaT))
		if err != nil {
			return err
		}
		*out = C.fsrs_review_t(h)
		return nil
	})
}

//export fsrs_review_get
func fsrs_review_get(review C.fsrs_review_t, out *C.fsrs_ReviewRecord) C.fsrs_status {
	return call("fsrs_review_get", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		r, err := rt.ReviewGet(abi.Handle(review))
		if err != nil {
			return err
		}
		reviewRecordToC(out, r)
		return nil
	})
}

//export fsrs_review_free
func fsrs_review_free(review C.fsrs_review_t) C.fsrs_status {
	return call("fsrs_review_free", func(rt *abi.Runtime) error {
		return rt.ReviewFree(abi.Handle(review))
	})
}

// --- memory states ---

//export fsrs_memory_state_new
func fsrs_memory_state_new(stability, difficulty C.float, out *C.fsrs_memory_state_t) C.fsrs_status {
	return call("fsrs_memory_state_new", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		h, err := rt.MemoryStateNew(float32(stability), float32(difficulty))
		if err != nil {
			return err
		}
		*out = C.fsrs_memory_state_t(h)
		return nil
	})
}

//export fsrs_memory_state_get
func fsrs_memory_state_get(state C.fsrs_memory_state_t, out *C.fsrs_MemoryState) C.fsrs_status {
	return call("fsrs_memory_state_get", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		m, err := rt.MemoryStateGet(abi.Handle(state))
		if err != nil {
			return err
		}
		memoryStateToC(out, m)
		return nil
	})
}

//export fsrs_memory_state_free
func fsrs_memory_state_free(state C.fsrs_memory_state_t) C.fsrs_status {
	return call("fsrs_memory_state_free", func(rt *abi.Runtime) error {
		return rt.MemoryStateFree(abi.Handle(state))
	})
}

//export fsrs_memory_state_from_item
func fsrs_memory_state_from_item(e C.fsrs_engine_t, item C.fsrs_item_t, start C.fsrs_memory_state_t, out *C.fsrs_memory_state_t) C.fsrs_status {
	return call("fsrs_memory_state_from_item", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		h, err := rt.MemoryStateFromItem(abi.Handle(e), abi.Handle(item), abi.Handle(start))
		if err != nil {
			return err
		}
		*out = C.fsrs_memory_state_t(h)
		return nil
	})
}

//export fsrs_retrievability
func fsrs_retrievability(e C.fsrs_engine_t, state C.fsrs_memory_state_t, daysElapsed C.uint32_t, out *C.float) C.fsrs_status {
	return call("fsrs_retrievability", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		r, err := rt.Retrievability(abi.Handle(e), abi.Handle(state), uint32(daysElapsed))
		if err != nil {
			return err
		}
		*out = C.float(r)
		return nil
	})
}

// --- next states ---

//export fsrs_next_states
func fsrs_next_states(e C.fsrs_engine_t, state C.fsrs_memory_state_t, desiredRetention C.float, daysElapsed C.uint32_t, out *C.fsrs_next_states_t) C.fsrs_status {
	return call("fsrs_next_states", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		h, err := rt.NextStates(abi.Handle(e), abi.Handle(state), float32(desiredRetention), uint32(daysElapsed))
		if err != nil {
			return err
		}
		*out = C.fsrs_next_states_t(h)
		return nil
	})
}

func nextState(op string, ns C.fsrs_next_states_t, rating uint32, out *C.fsrs_ItemState) C.fsrs_status {
	return call(op, func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		s, err := rt.NextStatesGet(abi.Handle(ns), rating)
		if err != nil {
			return err
		}
		itemStateToC(out, s)
		return nil
	})
}

//export fsrs_next_states_get
func fsrs_next_states_get(ns C.fsrs_next_states_t, rating C.uint32_t, out *C.fsrs_ItemState) C.fsrs_status {
	return nextState("fsrs_next_states_get", ns, uint32(rating), out)
}

//export fsrs_next_states_again
func fsrs_next_states_again(ns C.fsrs_next_states_t, out *C.fsrs_ItemState) C.fsrs_status {
	return nextState("fsrs_next_states_again", ns, uint32(engine.Again), out)
}

//export fsrs_next_states_hard
func fsrs_next_states_hard(ns C.fsrs_next_states_t, out *C.fsrs_ItemState) C.fsrs_status {
	return nextState("fsrs_next_states_hard", ns, uint32(engine.Hard), out)
}

//export fsrs_next_states_good
func fsrs_next_states_good(ns C.fsrs_next_states_t, out *C.fsrs_ItemState) C.fsrs_status {
	return nextState("fsrs_next_states_good", ns, uint32(engine.Good), out)
}

//export fsrs_next_states_easy
func fsrs_next_states_easy(ns C.fsrs_next_states_t, out *C.fsrs_ItemState) C.fsrs_status {
	return nextState("fsrs_next_states_easy", ns, uint32(engine.Easy), out)
}

//export fsrs_next_states_free
func fsrs_next_states_free(ns C.fsrs_next_states_t) C.fsrs_status {
	return call("fsrs_next_states_free", func(rt *abi.Runtime) error {
		return rt.NextStatesFree(abi.Handle(ns))
	})
}

// --- training ---

//export fsrs_compute_parameters
func fsrs_compute_parameters(e C.fsrs_engine_t, items *C.fsrs_item_t, length C.size_t, out *C.fsrs_parameters_t) C.fsrs_status {
	return call("fsrs_compute_parameters", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		if items == nil && length > 0 {
			return nullArray("items")
		}
		handles := make([]abi.Handle, int(length))
		if length > 0 {
			for i, h := range unsafe.Slice(items, int(length)) {
				handles[i] = abi.Handle(h)
			}
		}
		h, err := rt.ComputeParameters(abi.Handle(e), handles)
		if err != nil {
			return err
		}
		*out = C.fsrs_parameters_t(h)
		return nil
	})
}

//export fsrs_parameters_len
func fsrs_parameters_len(p C.fsrs_parameters_t, out *C.size_t) C.fsrs_status {
	return call("fsrs_parameters_len", func(rt *abi.Runtime) error {
		if out == nil {
			return errNilOut
		}
		n, err := rt.ParametersLen(abi.Handle(p))
		if err != nil {
			return err
		}
		*out = C.size_t(n)
		return nil
	})
}

//export fsrs_parameters_copy
func fsrs_parameters_copy(p C.fsrs_parameters_t, dst *C.float, capacity C.size_t, written *C.size_t) C.fsrs_status {
	return call("fsrs_parameters_copy", func(rt *abi.Runtime) error {
		if written == nil {
			return errNilOut
		}
		if dst == nil && capacity > 0 {
			return nullArray("dst")
		}
		var buf []float32
		if capacity > 0 {
			// A vector never holds more than NumParameters values.
			buf = unsafe.Slice((*float32)(unsafe.Pointer(dst)), int(min(capacity, engine.NumParameters)))
		}
		n, err := rt.ParametersCopy(abi.Handle(p), buf)
		if err != nil {
			return requiredLength(written, n, err)
		}
		*written = C.size_t(n)
		return nil
	})
}

//export fsrs_parameters_free
func fsrs_parameters_free(p C.fsrs_parameters_t) C.fsrs_status {
	return call("fsrs_parameters_free", func(rt *abi.Runtime) error {
		return rt.ParametersFree(abi.Handle(p))
	})
}
