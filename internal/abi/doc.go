// Package abi is the marshalling and ownership layer behind the C entry
// points of libfsrs.
//
// Every operation is a method on Runtime that takes and returns Go values
// (handles, fixed-layout records, slices the caller has already bounded)
// and reports failure as an error. Guard turns those errors, and any
// panic, into a Status for the C caller. The cmd/libfsrs package only
// moves bytes between C memory and these methods.
//
// Ownership: a handle returned by a *New method or by ComputeParameters,
// NextStates, MemoryStateFromItem or EngineParameters is owned by the
// caller and must be passed to the matching *Free method exactly once.
// Handles passed as inputs are borrowed and never released by the callee.
package abi
