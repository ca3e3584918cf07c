package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of AllocAligned (one AVX-512 register).
const Alignment = 64

// AllocAligned allocates a zeroed byte slice of the given size whose first
// byte lies on a 64-byte boundary. The capacity equals size.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment needs the address
	offset := int((Alignment - addr%Alignment) % Alignment)

	return buf[offset : offset+size : offset+size]
}

// GrowAligned returns an aligned slice with the contents of b, len(b) and a
// capacity of at least capacity.
func GrowAligned(b []byte, capacity int) []byte {
	if capacity <= cap(b) && IsAligned(b) {
		return b
	}
	out := AllocAligned(max(capacity, len(b)))
	if out == nil {
		return b[:0]
	}
	n := copy(out, b)
	return out[:n]
}

// IsAligned reports whether b starts on a 64-byte boundary. Empty slices
// count as aligned.
func IsAligned(b []byte) bool {
	if cap(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))%Alignment == 0 //nolint:gosec // alignment needs the address
}
