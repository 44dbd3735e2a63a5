package main

/*
#include "fsrs_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/sky-flux/flux-ffi/internal/abi"
)

// Compile-time checks that the C header and the Go side agree. Each index
// expression is out of range unless the two sides are equal.
var (
	_ = [1]struct{}{}[C.FSRS_LAYOUT_VERSION-abi.LayoutVersion]
	_ = [1]struct{}{}[unsafe.Sizeof(C.fsrs_ReviewRecord{})-unsafe.Sizeof(abi.ReviewRecord{})]
	_ = [1]struct{}{}[unsafe.Sizeof(C.fsrs_MemoryState{})-unsafe.Sizeof(abi.MemoryState{})]
	_ = [1]struct{}{}[unsafe.Sizeof(C.fsrs_ItemState{})-unsafe.Sizeof(abi.ItemState{})]

	_ = [1]struct{}{}[C.FSRS_OK-abi.StatusOK]
	_ = [1]struct{}{}[C.FSRS_ERR_NULL_HANDLE-abi.StatusNullHandle]
	_ = [1]struct{}{}[C.FSRS_ERR_STALE_HANDLE-abi.StatusStaleHandle]
	_ = [1]struct{}{}[C.FSRS_ERR_WRONG_KIND-abi.StatusWrongKind]
	_ = [1]struct{}{}[C.FSRS_ERR_OWNED-abi.StatusOwned]
	_ = [1]struct{}{}[C.FSRS_ERR_INVALID_ARGUMENT-abi.StatusInvalidArgument]
	_ = [1]struct{}{}[C.FSRS_ERR_INVALID_PARAMETERS-abi.StatusInvalidParameters]
	_ = [1]struct{}{}[C.FSRS_ERR_INVALID_RETENTION-abi.StatusInvalidRetention]
	_ = [1]struct{}{}[C.FSRS_ERR_INVALID_MEMORY_STATE-abi.StatusInvalidMemoryState]
	_ = [1]struct{}{}[C.FSRS_ERR_INVALID_RATING-abi.StatusInvalidRating]
	_ = [1]struct{}{}[C.FSRS_ERR_BUFFER_TOO_SMALL-abi.StatusBufferTooSmall]
	_ = [1]struct{}{}[C.FSRS_ERR_EXHAUSTED-abi.StatusExhausted]
	_ = [1]struct{}{}[C.FSRS_ERR_INTERNAL-abi.StatusInternal]
)

func reviewRecordsFromC(src []C.fsrs_ReviewRecord) []abi.ReviewRecord {
	out := make([]abi.ReviewRecord, len(src))
	for i, r := range src {
		out[i] = abi.ReviewRecord{Rating: uint32(r.rating), DeltaT: uint32(r.delta_t)}
	}
	return out
}

func reviewRecordToC(dst *C.fsrs_ReviewRecord, r abi.ReviewRecord) {
	dst.rating = C.uint32_t(r.Rating)
	dst.delta_t = C.uint32_t(r.DeltaT)
}

func memoryStateToC(dst *C.fsrs_MemoryState, m abi.MemoryState) {
	dst.stability = C.float(m.Stability)
	dst.difficulty = C.float(m.Difficulty)
}

func itemStateToC(dst *C.fsrs_ItemState, s abi.ItemState) {
	memoryStateToC(&dst.memory, s.Memory)
	dst.interval = C.float(s.Interval)
}
