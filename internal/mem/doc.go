// Package mem allocates 64-byte aligned buffers.
//
// The slot arena lives in such a buffer so that every fixed-width float32
// code can be viewed in place and SIMD kernels load from aligned rows.
package mem
