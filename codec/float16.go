package codec

import (
	"encoding/binary"

	"github.com/x448/float16"
)

// Float16 stores each dimension as an IEEE-754 binary16 value (little-endian).
// It halves slot size; values are rounded to nearest-even on Encode.
type Float16 struct{}

// Name returns "float16".
func (Float16) Name() string { return "float16" }

// CodeSize returns dim*2.
func (Float16) CodeSize(dim int) int { return dim * 2 }

// Encode writes the binary16 representation of v into dst.
func (Float16) Encode(dst []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint16(dst[i*2:], float16.Fromfloat32(f).Bits())
	}
}

// Decode widens the binary16 values in code into dst.
func (Float16) Decode(dst []float32, code []byte) {
	for i := range dst {
		dst[i] = float16.Frombits(binary.LittleEndian.Uint16(code[i*2:])).Float32()
	}
}
