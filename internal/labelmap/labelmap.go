// Package labelmap maintains the bijection between external labels and the
// internal slots of live vectors.
//
// Labels are assigned from a counter starting at 0 and are never reused: a
// label below Next() that is no longer mapped has been released for good.
package labelmap

import (
	"errors"
	"fmt"
	"math"
)

// Label is an external vector identifier.
type Label = int64

// NoLabel marks a slot without a label in the inverse mapping.
const NoLabel Label = -1

var (
	// ErrUnknownLabel is returned for labels that were never assigned.
	ErrUnknownLabel = errors.New("unknown label")
	// ErrReleased is returned for labels that were assigned and then released.
	ErrReleased = errors.New("label released")
	// ErrNoLabel is returned for slots that hold no live label.
	ErrNoLabel = errors.New("slot has no label")
	// ErrSlotTaken is returned when assigning a slot that already has a label.
	ErrSlotTaken = errors.New("slot already labelled")
)

// Map is a bidirectional label <-> slot mapping. It is not safe for
// concurrent use.
type Map struct {
	next    Label
	forward map[Label]uint32
	inverse []Label // indexed by slot
}

// New returns an empty Map.
func New() *Map {
	return &Map{forward: make(map[Label]uint32)}
}

// Next returns the label the next Assign will return.
func (m *Map) Next() Label { return m.next }

// Len returns the number of live labels.
func (m *Map) Len() int { return len(m.forward) }

// Assign gives slot a fresh label.
func (m *Map) Assign(slot uint32) (Label, error) {
	if int(slot) < len(m.inverse) && m.inverse[slot] != NoLabel {
		return NoLabel, fmt.Errorf("%w: slot %d has label %d", ErrSlotTaken, slot, m.inverse[slot])
	}
	if m.next == math.MaxInt64 {
		return NoLabel, errors.New("labelmap: label space exhausted")
	}

	for int(slot) >= len(m.inverse) {
		m.inverse = append(m.inverse, NoLabel)
	}

	label := m.next
	m.next++
	m.forward[label] = slot
	m.inverse[slot] = label
	return label, nil
}

// Release removes label from both directions of the mapping.
func (m *Map) Release(label Label) error {
	slot, err := m.SlotOf(label)
	if err != nil {
		return err
	}
	delete(m.forward, label)
	m.inverse[slot] = NoLabel
	return nil
}

// SlotOf returns the slot of a live label.
func (m *Map) SlotOf(label Label) (uint32, error) {
	if slot, ok := m.forward[label]; ok {
		return slot, nil
	}
	if label >= 0 && label < m.next {
		return 0, fmt.Errorf("%w: %d", ErrReleased, label)
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownLabel, label)
}

// LabelOf returns the label of a live slot.
func (m *Map) LabelOf(slot uint32) (Label, error) {
	if int(slot) >= len(m.inverse) || m.inverse[slot] == NoLabel {
		return NoLabel, fmt.Errorf("%w: %d", ErrNoLabel, slot)
	}
	return m.inverse[slot], nil
}

// Lookup returns the label of slot, or NoLabel. It is the unchecked variant of
// LabelOf used on scan hot paths.
func (m *Map) Lookup(slot uint32) Label {
	if int(slot) >= len(m.inverse) {
		return NoLabel
	}
	return m.inverse[slot]
}

// Reset forgets every label and restarts the counter at 0.
func (m *Map) Reset() {
	m.next = 0
	m.forward = make(map[Label]uint32)
	m.inverse = nil
}

// Inverse returns the slot -> label table. The slice aliases the map.
func (m *Map) Inverse() []Label {
	return m.inverse
}

// Restore rebuilds the map from a slot -> label table and the counter.
func (m *Map) Restore(inverse []Label, next Label) error {
	forward := make(map[Label]uint32, len(inverse))
	for slot, label := range inverse {
		if label == NoLabel {
			continue
		}
		if label < 0 || label >= next {
			return fmt.Errorf("%w: %d at slot %d (next %d)", ErrUnknownLabel, label, slot, next)
		}
		if prev, dup := forward[label]; dup {
			return fmt.Errorf("labelmap: label %d mapped to slots %d and %d", label, prev, slot)
		}
		forward[label] = uint32(slot)
	}
	m.next = next
	m.forward = forward
	m.inverse = append([]Label(nil), inverse...)
	return nil
}
