// Package slotstore implements the slot arena of a flat index: one fixed-size
// code per slot, a tagged state per slot and an ordered pool of free slots.
//
// A slot is live, free (in the pool) or reserved (popped from the pool and
// awaiting Overwrite). Free slots keep their stale bytes until reused. The pool
// is a roaring bitmap so reuse is always smallest-slot-first.
//
// The store is not safe for concurrent use. Slices returned by Read and Range
// alias the arena and are invalidated by the next Append that grows it.
package slotstore
