package vecflat

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bits-and-blooms/bitset"
)

// Selector restricts a search to a subset of labels. Contains is called
// concurrently from scan goroutines and must not mutate shared state.
type Selector interface {
	Contains(label Label) bool
}

// SelectorFunc adapts a function to a Selector.
type SelectorFunc func(label Label) bool

// Contains implements Selector.
func (f SelectorFunc) Contains(label Label) bool { return f(label) }

// BatchSelector admits an explicit set of labels.
type BatchSelector struct {
	bm *roaring64.Bitmap
}

// NewBatchSelector returns a selector admitting exactly labels.
// Negative labels are ignored.
func NewBatchSelector(labels ...Label) *BatchSelector {
	bm := roaring64.New()
	for _, l := range labels {
		if l >= 0 {
			bm.Add(uint64(l))
		}
	}
	return &BatchSelector{bm: bm}
}

// Contains implements Selector.
func (s *BatchSelector) Contains(label Label) bool {
	return label >= 0 && s.bm.Contains(uint64(label))
}

// Len returns the number of admitted labels.
func (s *BatchSelector) Len() int { return int(s.bm.GetCardinality()) }

// BitmapSelector admits the labels whose bit is set in a dense bitset.
// It suits selections that cover a large share of a compact label range.
type BitmapSelector struct {
	bits *bitset.BitSet
}

// NewBitmapSelector wraps bits. Bit i admits label i.
func NewBitmapSelector(bits *bitset.BitSet) *BitmapSelector {
	return &BitmapSelector{bits: bits}
}

// Contains implements Selector.
func (s *BitmapSelector) Contains(label Label) bool {
	return label >= 0 && s.bits.Test(uint(label))
}

// RangeSelector admits labels in [Min, Max).
type RangeSelector struct {
	Min, Max Label
}

// Contains implements Selector.
func (s RangeSelector) Contains(label Label) bool {
	return label >= s.Min && label < s.Max
}

// NotSelector admits the labels its inner selector rejects.
type NotSelector struct {
	Inner Selector
}

// Contains implements Selector.
func (s NotSelector) Contains(label Label) bool {
	return !s.Inner.Contains(label)
}

// AndSelector admits labels admitted by every inner selector.
type AndSelector []Selector

// Contains implements Selector.
func (s AndSelector) Contains(label Label) bool {
	for _, sel := range s {
		if !sel.Contains(label) {
			return false
		}
	}
	return true
}

// OrSelector admits labels admitted by any inner selector.
type OrSelector []Selector

// Contains implements Selector.
func (s OrSelector) Contains(label Label) bool {
	for _, sel := range s {
		if sel.Contains(label) {
			return true
		}
	}
	return false
}
