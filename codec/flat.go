package codec

import "unsafe"

// Flat stores vectors as their raw float32 bytes: dim*4 bytes, row-major, no
// header, in host byte order. Decode(Encode(v)) is bit-exact.
type Flat struct{}

// Name returns "flat".
func (Flat) Name() string { return "flat" }

// CodeSize returns dim*4.
func (Flat) CodeSize(dim int) int { return dim * 4 }

// Encode copies the bytes of v into dst.
func (Flat) Encode(dst []byte, v []float32) {
	if len(v) == 0 {
		return
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*4)
	copy(dst, src)
}

// Decode copies the bytes of code into dst.
func (Flat) Decode(dst []float32, code []byte) {
	if len(dst) == 0 {
		return
	}
	out := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(dst))), len(dst)*4)
	copy(out, code)
}

// View reinterprets code as []float32 without copying.
// The returned slice aliases code.
func (Flat) View(code []byte) ([]float32, bool) {
	if len(code) == 0 {
		return nil, true
	}
	p := unsafe.Pointer(unsafe.SliceData(code))
	if uintptr(p)%unsafe.Alignof(float32(0)) != 0 {
		return nil, false
	}
	return unsafe.Slice((*float32)(p), len(code)/4), true
}

var _ Viewer = Flat{}
