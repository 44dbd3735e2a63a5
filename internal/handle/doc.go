// Package handle implements a generation-checked registry of opaque
// handles.
//
// A Handle is a 64-bit token that encodes a slot index and the slot's
// generation. Releasing a handle bumps the generation, so a later use
// of the same token is detected as stale instead of reaching freed
// memory. Handles form an ownership tree: a child adopted by a parent
// cannot be released on its own and is released with its parent.
//
// The zero Handle is the null handle.
package handle
