// Package topk collects the best k candidates of a scan.
package topk

import "sort"

// Item is a scored slot.
type Item struct {
	Slot     uint32
	Distance float32
}

// Heap keeps the k best items seen so far. The root is the worst retained
// item, so a candidate only needs one comparison against it to be rejected.
//
// For distances smaller is better, for similarities larger is better. Equal
// scores are ordered by ascending slot.
type Heap struct {
	k          int
	similarity bool
	items      []Item
}

// maxPrealloc bounds the capacity New reserves up front; larger heaps grow
// as candidates arrive.
const maxPrealloc = 1024

// New returns a heap that retains at most k items.
func New(k int, similarity bool) *Heap {
	return &Heap{
		k:          k,
		similarity: similarity,
		items:      make([]Item, 0, min(max(k, 0), maxPrealloc)),
	}
}

// Better reports whether a ranks before b.
func Better(a, b Item, similarity bool) bool {
	if a.Distance != b.Distance {
		if similarity {
			return a.Distance > b.Distance
		}
		return a.Distance < b.Distance
	}
	return a.Slot < b.Slot
}

// Len returns the number of retained items.
func (h *Heap) Len() int { return len(h.items) }

// Full reports whether k items are retained.
func (h *Heap) Full() bool { return len(h.items) >= h.k }

// Worst returns the root. Only meaningful when Len() > 0.
func (h *Heap) Worst() Item { return h.items[0] }

// Push offers a candidate and reports whether it was kept.
func (h *Heap) Push(slot uint32, dist float32) bool {
	if h.k <= 0 {
		return false
	}
	it := Item{Slot: slot, Distance: dist}
	if len(h.items) < h.k {
		h.items = append(h.items, it)
		h.siftUp(len(h.items) - 1)
		return true
	}
	if !Better(it, h.items[0], h.similarity) {
		return false
	}
	h.items[0] = it
	h.siftDown(0)
	return true
}

// Sorted drains the heap and returns the items best-first.
func (h *Heap) Sorted() []Item {
	out := make([]Item, len(h.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = h.pop()
	}
	return out
}

// Reset empties the heap for reuse.
func (h *Heap) Reset() { h.items = h.items[:0] }

// worse is the heap order: the worse item floats to the root.
func (h *Heap) worse(i, j int) bool {
	return Better(h.items[j], h.items[i], h.similarity)
}

func (h *Heap) pop() Item {
	n := len(h.items)
	root := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.siftDown(0)
	}
	return root
}

func (h *Heap) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.worse(i, p) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *Heap) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		w := l
		if r := l + 1; r < n && h.worse(r, l) {
			w = r
		}
		if !h.worse(w, i) {
			return
		}
		h.items[i], h.items[w] = h.items[w], h.items[i]
		i = w
	}
}

// Range gathers every item within a radius.
type Range struct {
	similarity bool
	radius     float32
	items      []Item
}

// NewRange returns a collector that keeps items with distance < radius, or
// similarity > radius.
func NewRange(radius float32, similarity bool) *Range {
	return &Range{radius: radius, similarity: similarity}
}

// Push offers a candidate and reports whether it was kept.
func (r *Range) Push(slot uint32, dist float32) bool {
	if r.similarity {
		if !(dist > r.radius) {
			return false
		}
	} else if !(dist < r.radius) {
		return false
	}
	r.items = append(r.items, Item{Slot: slot, Distance: dist})
	return true
}

// Len returns the number of collected items.
func (r *Range) Len() int { return len(r.items) }

// Sorted returns the collected items best-first.
func (r *Range) Sorted() []Item {
	sim := r.similarity
	sort.Slice(r.items, func(i, j int) bool {
		return Better(r.items[i], r.items[j], sim)
	})
	return r.items
}
