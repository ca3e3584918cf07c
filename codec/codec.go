// Package codec centralizes byte encodings used by vecflat.
//
// Two unrelated concerns live here:
//
//   - Encoder turns a float32 vector into the fixed-size code stored in a slot
//     and back. Flat (the default) is an identity encoding; Float16 halves the
//     storage at the cost of precision.
//   - Codec encodes structured values such as the snapshot manifest.
//
// Changing either is a breaking-change boundary for persisted snapshots, which
// record both names in their manifest.
package codec

import (
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Encoder converts vectors to and from fixed-width codes.
// Implementations must be stateless and safe for concurrent use.
type Encoder interface {
	// Name returns the stable name recorded in snapshots.
	Name() string
	// CodeSize returns the number of bytes of one encoded vector of dimension dim.
	CodeSize(dim int) int
	// Encode writes the code of v into dst. len(dst) must equal CodeSize(len(v)).
	Encode(dst []byte, v []float32)
	// Decode writes the vector stored in code into dst.
	Decode(dst []float32, code []byte)
}

// Viewer is implemented by encoders whose codes are the raw float32 bytes, so a
// code can be read as a vector without copying.
type Viewer interface {
	// View reinterprets code as a float32 slice. ok is false when code cannot
	// be viewed in place (e.g. misaligned) and must be decoded instead.
	View(code []byte) (v []float32, ok bool)
}

// EncoderByName returns a built-in encoder by its stable name.
func EncoderByName(name string) (Encoder, bool) {
	switch name {
	case Flat{}.Name():
		return Flat{}, true
	case Float16{}.Name():
		return Float16{}, true
	default:
		return nil, false
	}
}

// Codec encodes/decodes structured values.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSON is the standard-library JSON codec.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// GoJSON is a JSON codec backed by github.com/goccy/go-json.
type GoJSON struct{}

// Marshal encodes the value to JSON.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }

// Default is the codec used for newly written snapshot manifests.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
