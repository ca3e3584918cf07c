package scan

import (
	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
)

// Source is the read side of a slot store.
type Source interface {
	Len() int
	IsLive(slot uint32) bool
	Read(slot uint32) []byte
	Range(lo, hi uint32) []byte
}

type codeVectors struct {
	src    Source
	enc    codec.Encoder
	viewer codec.Viewer
}

// Vectors adapts a Source and the encoder of its codes to distance.Vectors.
// Codes are viewed in place when the encoder allows it, decoded otherwise.
func Vectors(src Source, enc codec.Encoder) distance.Vectors {
	v := codeVectors{src: src, enc: enc}
	v.viewer, _ = enc.(codec.Viewer)
	return v
}

func (v codeVectors) Vector(slot uint32, scratch []float32) []float32 {
	code := v.src.Read(slot)
	if v.viewer != nil {
		if f, ok := v.viewer.View(code); ok {
			return f
		}
	}
	v.enc.Decode(scratch, code)
	return scratch
}
