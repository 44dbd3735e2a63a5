package abi

// LayoutVersion identifies the field order and widths of ReviewRecord,
// MemoryState and ItemState. It changes whenever any of them changes.
const LayoutVersion = 2

// ReviewRecord mirrors fsrs_ReviewRecord.
type ReviewRecord struct {
	Rating uint32
	DeltaT uint32
}

// MemoryState mirrors fsrs_MemoryState.
type MemoryState struct {
	Stability  float32
	Difficulty float32
}

// ItemState mirrors fsrs_ItemState.
type ItemState struct {
	Memory   MemoryState
	Interval float32
}
