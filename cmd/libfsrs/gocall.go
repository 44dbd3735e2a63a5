package main

/*
#include "fsrs_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// Go-typed callers of the exported entry points. _test.go files cannot
// use cgo, so package tests drive the C boundary through these.

// unwritten marks a size_t out-pointer the callee never stored to.
const unwritten = uint64(^C.size_t(0))

func status(s C.fsrs_status) abi.Status { return abi.Status(s) }

func liveHandles() int { return int(fsrs_live_handles()) }

func layoutVersion() uint32 { return uint32(fsrs_layout_version()) }

// statusMessage returns the text for s and the address it is served from.
func statusMessage(s abi.Status) (string, uintptr) {
	p := fsrs_status_message(C.fsrs_status(s))
	return C.GoString(p), uintptr(unsafe.Pointer(p))
}

func engineNew(params []float32) (abi.Handle, abi.Status) {
	var p *C.float
	if len(params) > 0 {
		p = (*C.float)(unsafe.Pointer(&params[0]))
	}
	var out C.fsrs_engine_t
	st := fsrs_engine_new(p, C.size_t(len(params)), &out)
	return abi.Handle(out), status(st)
}

func engineParameters(e abi.Handle) (abi.Handle, abi.Status) {
	var out C.fsrs_parameters_t
	st := fsrs_engine_parameters(C.fsrs_engine_t(e), &out)
	return abi.Handle(out), status(st)
}

func itemNew(recs []abi.ReviewRecord) (abi.Handle, abi.Status) {
	var src *C.fsrs_ReviewRecord
	if len(recs) > 0 {
		c := make([]C.fsrs_ReviewRecord, len(recs))
		for i, r := range recs {
			reviewRecordToC(&c[i], r)
		}
		src = &c[0]
	}
	var out C.fsrs_item_t
	st := fsrs_item_new(src, C.size_t(len(recs)), &out)
	return abi.Handle(out), status(st)
}

func itemLen(it abi.Handle) (int, abi.Status) {
	var out C.size_t
	st := fsrs_item_len(C.fsrs_item_t(it), &out)
	return int(out), status(st)
}

// itemReviews calls fsrs_item_reviews with a destination of allocated
// records while claiming capacity. It returns the records stored, the
// value of *written (unwritten if untouched) and the status.
func itemReviews(it abi.Handle, allocated int, capacity uint64) ([]abi.ReviewRecord, uint64, abi.Status) {
	var dst *C.fsrs_ReviewRecord
	buf := make([]C.fsrs_ReviewRecord, allocated)
	if allocated > 0 {
		dst = &buf[0]
	}
	written := ^C.size_t(0)
	st := fsrs_item_reviews(C.fsrs_item_t(it), dst, C.size_t(capacity), &written)

	out := make([]abi.ReviewRecord, allocated)
	for i, r := range buf {
		out[i] = abi.ReviewRecord{Rating: uint32(r.rating), DeltaT: uint32(r.delta_t)}
	}
	return out, uint64(written), status(st)
}

func memoryStateNew(stability, difficulty float32) (abi.Handle, abi.Status) {
	var out C.fsrs_memory_state_t
	st := fsrs_memory_state_new(C.float(stability), C.float(difficulty), &out)
	return abi.Handle(out), status(st)
}

func memoryStateGet(ms abi.Handle) (abi.MemoryState, abi.Status) {
	var out C.fsrs_MemoryState
	st := fsrs_memory_state_get(C.fsrs_memory_state_t(ms), &out)
	return abi.MemoryState{Stability: float32(out.stability), Difficulty: float32(out.difficulty)}, status(st)
}

func memoryStateFromItem(e, it, start abi.Handle) (abi.Handle, abi.Status) {
	var out C.fsrs_memory_state_t
	st := fsrs_memory_state_from_item(C.fsrs_engine_t(e), C.fsrs_item_t(it), C.fsrs_memory_state_t(start), &out)
	return abi.Handle(out), status(st)
}

func reviewNew(rating, deltaT uint32) (abi.Handle, abi.Status) {
	var out C.fsrs_review_t
	st := fsrs_review_new(C.uint32_t(rating), C.uint32_t(deltaT), &out)
	return abi.Handle(out), status(st)
}

func nextStates(e, ms abi.Handle, retention float32, days uint32) (abi.Handle, abi.Status) {
	var out C.fsrs_next_states_t
	st := fsrs_next_states(C.fsrs_engine_t(e), C.fsrs_memory_state_t(ms), C.float(retention), C.uint32_t(days), &out)
	return abi.Handle(out), status(st)
}

// nextStatesAll reads the again, hard, good and easy outcomes in order
// through their dedicated accessors.
func nextStatesAll(ns abi.Handle) ([4]abi.ItemState, abi.Status) {
	var res [4]abi.ItemState
	getters := [4]func(C.fsrs_next_states_t, *C.fsrs_ItemState) C.fsrs_status{
		fsrs_next_states_again, fsrs_next_states_hard, fsrs_next_states_good, fsrs_next_states_easy,
	}
	for i, get := range getters {
		var out C.fsrs_ItemState
		if st := get(C.fsrs_next_states_t(ns), &out); st != C.FSRS_OK {
			return res, status(st)
		}
		res[i] = abi.ItemState{
			Memory:   abi.MemoryState{Stability: float32(out.memory.stability), Difficulty: float32(out.memory.difficulty)},
			Interval: float32(out.interval),
		}
	}
	return res, abi.StatusOK
}

// computeParameters passes items as the C array. A nil slice is sent as
// NULL with length n, so NULL/0 and NULL/n can both be exercised.
func computeParameters(e abi.Handle, items []abi.Handle, n int) (abi.Handle, abi.Status) {
	var src *C.fsrs_item_t
	if items != nil {
		c := make([]C.fsrs_item_t, len(items))
		for i, h := range items {
			c[i] = C.fsrs_item_t(h)
		}
		if len(c) > 0 {
			src = &c[0]
		}
		n = len(items)
	}
	var out C.fsrs_parameters_t
	st := fsrs_compute_parameters(C.fsrs_engine_t(e), src, C.size_t(n), &out)
	return abi.Handle(out), status(st)
}

func parametersLen(p abi.Handle) (int, abi.Status) {
	var out C.size_t
	st := fsrs_parameters_len(C.fsrs_parameters_t(p), &out)
	return int(out), status(st)
}

// parametersCopy mirrors itemReviews for fsrs_parameters_copy.
func parametersCopy(p abi.Handle, allocated int, capacity uint64) ([]float32, uint64, abi.Status) {
	var dst *C.float
	buf := make([]C.float, allocated)
	if allocated > 0 {
		dst = &buf[0]
	}
	written := ^C.size_t(0)
	st := fsrs_parameters_copy(C.fsrs_parameters_t(p), dst, C.size_t(capacity), &written)

	out := make([]float32, allocated)
	for i, v := range buf {
		out[i] = float32(v)
	}
	return out, uint64(written), status(st)
}

// freeHandle releases h through the _free entry point for kind.
func freeHandle(kind handle.Kind, h abi.Handle) abi.Status {
	switch kind {
	case handle.KindEngine:
		return status(fsrs_engine_free(C.fsrs_engine_t(h)))
	case handle.KindItem:
		return status(fsrs_item_free(C.fsrs_item_t(h)))
	case handle.KindReview:
		return status(fsrs_review_free(C.fsrs_review_t(h)))
	case handle.KindMemoryState:
		return status(fsrs_memory_state_free(C.fsrs_memory_state_t(h)))
	case handle.KindNextStates:
		return status(fsrs_next_states_free(C.fsrs_next_states_t(h)))
	case handle.KindParameters:
		return status(fsrs_parameters_free(C.fsrs_parameters_t(h)))
	}
	return abi.StatusWrongKind
}

// nullOutStatuses calls every constructor and getter with a NULL out
// pointer. Handles are valid so only the out pointer is at fault.
func nullOutStatuses(e, it, rv, ms, ns, p abi.Handle) map[string]abi.Status {
	ce, ci, cm := C.fsrs_engine_t(e), C.fsrs_item_t(it), C.fsrs_memory_state_t(ms)
	cn, cp := C.fsrs_next_states_t(ns), C.fsrs_parameters_t(p)
	return map[string]abi.Status{
		"fsrs_engine_new":             status(fsrs_engine_new(nil, 0, nil)),
		"fsrs_engine_parameters":      status(fsrs_engine_parameters(ce, nil)),
		"fsrs_item_new":               status(fsrs_item_new(nil, 0, nil)),
		"fsrs_item_len":               status(fsrs_item_len(ci, nil)),
		"fsrs_item_reviews":           status(fsrs_item_reviews(ci, nil, 0, nil)),
		"fsrs_review_new":             status(fsrs_review_new(3, 1, nil)),
		"fsrs_review_get":             status(fsrs_review_get(C.fsrs_review_t(rv), nil)),
		"fsrs_memory_state_new":       status(fsrs_memory_state_new(5, 5, nil)),
		"fsrs_memory_state_get":       status(fsrs_memory_state_get(cm, nil)),
		"fsrs_memory_state_from_item": status(fsrs_memory_state_from_item(ce, ci, 0, nil)),
		"fsrs_retrievability":         status(fsrs_retrievability(ce, cm, 1, nil)),
		"fsrs_next_states":            status(fsrs_next_states(ce, cm, 0.9, 1, nil)),
		"fsrs_next_states_get":        status(fsrs_next_states_get(cn, 3, nil)),
		"fsrs_next_states_again":      status(fsrs_next_states_again(cn, nil)),
		"fsrs_next_states_hard":       status(fsrs_next_states_hard(cn, nil)),
		"fsrs_next_states_good":       status(fsrs_next_states_good(cn, nil)),
		"fsrs_next_states_easy":       status(fsrs_next_states_easy(cn, nil)),
		"fsrs_compute_parameters":     status(fsrs_compute_parameters(ce, nil, 0, nil)),
		"fsrs_parameters_len":         status(fsrs_parameters_len(cp, nil)),
		"fsrs_parameters_copy":        status(fsrs_parameters_copy(cp, nil, 0, nil)),
	}
}

// nullArrayStatuses passes a NULL array with a non-zero length to every
// array-taking entry point. touched reports whether any out pointer was
// stored to.
func nullArrayStatuses(e, it, p abi.Handle) (statuses map[string]abi.Status, touched bool) {
	var (
		item   C.fsrs_item_t
		params C.fsrs_parameters_t
		rw, pw = ^C.size_t(0), ^C.size_t(0)
	)
	statuses = map[string]abi.Status{
		"fsrs_item_new":           status(fsrs_item_new(nil, 2, &item)),
		"fsrs_item_reviews":       status(fsrs_item_reviews(C.fsrs_item_t(it), nil, 2, &rw)),
		"fsrs_compute_parameters": status(fsrs_compute_parameters(C.fsrs_engine_t(e), nil, 2, &params)),
		"fsrs_parameters_copy":    status(fsrs_parameters_copy(C.fsrs_parameters_t(p), nil, 2, &pw)),
	}
	touched = item != 0 || params != 0 || rw != ^C.size_t(0) || pw != ^C.size_t(0)
	return statuses, touched
}
