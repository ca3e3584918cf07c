package topk

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapDistance(t *testing.T) {
	h := New(3, false)
	for i, d := range []float32{5, 1, 4, 2, 3, 0.5} {
		h.Push(uint32(i), d)
	}

	got := h.Sorted()
	require.Len(t, got, 3)
	assert.Equal(t, []Item{{5, 0.5}, {1, 1}, {3, 2}}, got)
	assert.Equal(t, 0, h.Len())
}

func TestHeapSimilarity(t *testing.T) {
	h := New(2, true)
	for i, d := range []float32{5, 1, 4, 2} {
		h.Push(uint32(i), d)
	}

	assert.Equal(t, []Item{{0, 5}, {2, 4}}, h.Sorted())
}

func TestHeapTies(t *testing.T) {
	h := New(2, false)
	for _, slot := range []uint32{7, 3, 9, 1} {
		h.Push(slot, 1)
	}

	assert.Equal(t, []Item{{1, 1}, {3, 1}}, h.Sorted())
}

func TestHeapFewerThanK(t *testing.T) {
	h := New(10, false)
	h.Push(4, 2)
	h.Push(2, 1)
	assert.False(t, h.Full())

	assert.Equal(t, []Item{{2, 1}, {4, 2}}, h.Sorted())
}

func TestHeapZeroK(t *testing.T) {
	h := New(0, false)
	assert.False(t, h.Push(1, 1))
	assert.Empty(t, h.Sorted())
}

func TestHeapHugeK(t *testing.T) {
	h := New(math.MaxInt, true)
	for i := range 3000 {
		h.Push(uint32(i), float32(i%7))
	}
	assert.False(t, h.Full())

	got := h.Sorted()
	require.Len(t, got, 3000)
	assert.Equal(t, Item{Slot: 6, Distance: 6}, got[0])
}

func TestHeapMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	items := make([]Item, 500)
	h := New(25, false)
	for i := range items {
		items[i] = Item{Slot: uint32(i), Distance: float32(rng.Intn(50))}
		h.Push(items[i].Slot, items[i].Distance)
	}

	sort.Slice(items, func(i, j int) bool { return Better(items[i], items[j], false) })
	assert.Equal(t, items[:25], h.Sorted())
}

func TestRange(t *testing.T) {
	t.Run("distance", func(t *testing.T) {
		r := NewRange(2, false)
		for i, d := range []float32{3, 1, 2, 0} {
			r.Push(uint32(i), d)
		}
		assert.Equal(t, []Item{{3, 0}, {1, 1}}, r.Sorted())
	})

	t.Run("similarity", func(t *testing.T) {
		r := NewRange(2, true)
		for i, d := range []float32{3, 1, 2, 5} {
			r.Push(uint32(i), d)
		}
		assert.Equal(t, []Item{{3, 5}, {0, 3}}, r.Sorted())
	})

	t.Run("empty", func(t *testing.T) {
		r := NewRange(0, false)
		r.Push(0, 0)
		assert.Empty(t, r.Sorted())
	})
}
