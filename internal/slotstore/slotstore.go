package slotstore

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecflat/internal/conv"
	"github.com/hupe1980/vecflat/internal/mem"
)

var (
	// ErrSlotLive is returned when overwriting a slot that holds a live code.
	ErrSlotLive = errors.New("slot is live")
	// ErrSlotDeleted is returned when deleting a slot that is not live.
	ErrSlotDeleted = errors.New("slot already deleted")
	// ErrOutOfRange is returned for slots >= Len().
	ErrOutOfRange = errors.New("slot out of range")
	// ErrCodeSize is returned when a code has the wrong length.
	ErrCodeSize = errors.New("code size mismatch")
	// ErrFull is returned when the arena cannot grow.
	ErrFull = errors.New("slot store full")
)

type state uint8

const (
	stateLive state = iota + 1
	stateFree
	stateReserved
)

// minGrowSlots is the smallest number of slots allocated by a growth step.
const minGrowSlots = 64

// Reserver accounts for arena memory. AcquireMemory may refuse growth.
type Reserver interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Option configures a Store.
type Option func(*Store)

// WithReserver makes the store reserve arena capacity through r before
// growing.
func WithReserver(r Reserver) Option {
	return func(s *Store) {
		s.reserver = r
	}
}

// Store is the slot arena.
type Store struct {
	codeSize int
	codes    []byte
	states   []state
	free     *roaring.Bitmap
	reserved int

	reserver      Reserver
	reservedBytes int64
}

// New creates an empty store for codes of codeSize bytes.
func New(codeSize int, optFns ...Option) (*Store, error) {
	if codeSize <= 0 {
		return nil, fmt.Errorf("slotstore: invalid code size %d", codeSize)
	}
	s := &Store{
		codeSize: codeSize,
		free:     roaring.New(),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s, nil
}

// CodeSize returns the size of one code in bytes.
func (s *Store) CodeSize() int { return s.codeSize }

// Len returns the number of slots, live or not.
func (s *Store) Len() int { return len(s.states) }

// FreeLen returns the number of slots in the free pool.
func (s *Store) FreeLen() int { return int(s.free.GetCardinality()) }

// LiveLen returns the number of live slots.
func (s *Store) LiveLen() int { return len(s.states) - s.FreeLen() - s.reserved }

// IsLive reports whether slot holds a live code.
func (s *Store) IsLive(slot uint32) bool {
	return int(slot) < len(s.states) && s.states[slot] == stateLive
}

// IsFree reports whether slot is in the free pool.
func (s *Store) IsFree(slot uint32) bool {
	return int(slot) < len(s.states) && s.states[slot] == stateFree
}

// Append grows the store by one live slot holding code.
func (s *Store) Append(code []byte) (uint32, error) {
	if len(code) != s.codeSize {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrCodeSize, s.codeSize, len(code))
	}
	slot, err := conv.Narrow[uint32](len(s.states))
	if err != nil || slot == math.MaxUint32 {
		return 0, fmt.Errorf("%w: slot index space exhausted", ErrFull)
	}
	if err := s.grow(1); err != nil {
		return 0, err
	}

	s.codes = append(s.codes, code...)
	s.states = append(s.states, stateLive)
	return slot, nil
}

// grow makes room for n more codes, reserving the added capacity first. The
// arena is 64-byte aligned.
func (s *Store) grow(n int) error {
	need := len(s.codes) + n*s.codeSize
	if need <= cap(s.codes) {
		return nil
	}

	newCap := max(2*cap(s.codes), minGrowSlots*s.codeSize, need)
	if err := s.reserve(int64(newCap - cap(s.codes))); err != nil {
		// Fall back to the exact size before giving up.
		newCap = need
		if err := s.reserve(int64(newCap - cap(s.codes))); err != nil {
			return fmt.Errorf("%w: %w", ErrFull, err)
		}
	}

	s.codes = mem.GrowAligned(s.codes, newCap)
	return nil
}

func (s *Store) reserve(bytes int64) error {
	if s.reserver == nil || bytes <= 0 {
		return nil
	}
	if err := s.reserver.AcquireMemory(bytes); err != nil {
		return err
	}
	s.reservedBytes += bytes
	return nil
}

// Acquire pops the smallest slot from the free pool and marks it reserved.
// It returns false when the pool is empty.
func (s *Store) Acquire() (uint32, bool) {
	if s.free.IsEmpty() {
		return 0, false
	}
	slot := s.free.Minimum()
	s.free.Remove(slot)
	s.states[slot] = stateReserved
	s.reserved++
	return slot, true
}

// Unreserve returns a reserved slot to the free pool.
func (s *Store) Unreserve(slot uint32) error {
	if int(slot) >= len(s.states) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, slot)
	}
	if s.states[slot] != stateReserved {
		return fmt.Errorf("slotstore: slot %d is not reserved", slot)
	}
	s.states[slot] = stateFree
	s.free.Add(slot)
	s.reserved--
	return nil
}

// Overwrite writes code into a reserved or free slot and marks it live.
func (s *Store) Overwrite(slot uint32, code []byte) error {
	if int(slot) >= len(s.states) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, slot)
	}
	if len(code) != s.codeSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrCodeSize, s.codeSize, len(code))
	}

	switch s.states[slot] {
	case stateLive:
		return fmt.Errorf("%w: %d", ErrSlotLive, slot)
	case stateFree:
		s.free.Remove(slot)
	case stateReserved:
		s.reserved--
	}

	off := int(slot) * s.codeSize
	copy(s.codes[off:off+s.codeSize], code)
	s.states[slot] = stateLive
	return nil
}

// MarkDeleted flags a live slot deleted and adds it to the free pool.
// Its bytes are kept until the slot is reused.
func (s *Store) MarkDeleted(slot uint32) error {
	if int(slot) >= len(s.states) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, slot)
	}
	if s.states[slot] != stateLive {
		return fmt.Errorf("%w: %d", ErrSlotDeleted, slot)
	}
	s.states[slot] = stateFree
	s.free.Add(slot)
	return nil
}

// Read returns the code of slot without bounds or liveness checks. Callers
// resolve slots through the label map, which only hands out live slots.
func (s *Store) Read(slot uint32) []byte {
	off := int(slot) * s.codeSize
	return s.codes[off : off+s.codeSize : off+s.codeSize]
}

// Range returns the codes of slots [lo, hi) as one contiguous slice,
// including the stale bytes of non-live slots.
func (s *Store) Range(lo, hi uint32) []byte {
	return s.codes[int(lo)*s.codeSize : int(hi)*s.codeSize]
}

// FreeSlots returns the free pool in ascending order.
func (s *Store) FreeSlots() []uint32 {
	return s.free.ToArray()
}

// MemoryBytes returns the approximate heap footprint of the store.
func (s *Store) MemoryBytes() int64 {
	return int64(cap(s.codes)) + int64(cap(s.states)) + int64(s.free.GetSizeInBytes())
}

// Reset releases all slots, codes and the free pool.
func (s *Store) Reset() {
	if s.reserver != nil && s.reservedBytes > 0 {
		s.reserver.ReleaseMemory(s.reservedBytes)
	}
	s.reservedBytes = 0
	s.codes = nil
	s.states = nil
	s.free = roaring.New()
	s.reserved = 0
}

// Codes returns the arena for slots [0, Len()). The slice aliases the store.
func (s *Store) Codes() []byte {
	return s.codes
}

// FreePool returns a copy of the free pool.
func (s *Store) FreePool() *roaring.Bitmap {
	return s.free.Clone()
}

// Restore replaces the content of the store with codes and free pool. Every
// slot not in free becomes live.
func (s *Store) Restore(codes []byte, free *roaring.Bitmap) error {
	if len(codes)%s.codeSize != 0 {
		return fmt.Errorf("%w: arena of %d bytes is not a multiple of %d", ErrCodeSize, len(codes), s.codeSize)
	}
	n := len(codes) / s.codeSize
	if free == nil {
		free = roaring.New()
	}
	if !free.IsEmpty() && int(free.Maximum()) >= n {
		return fmt.Errorf("%w: free slot %d >= %d", ErrOutOfRange, free.Maximum(), n)
	}

	s.Reset()
	if err := s.grow(n); err != nil {
		return err
	}
	s.codes = append(s.codes, codes...)
	s.states = make([]state, n)
	for i := range s.states {
		s.states[i] = stateLive
	}
	it := free.Iterator()
	for it.HasNext() {
		s.states[it.Next()] = stateFree
	}
	s.free = free.Clone()
	return nil
}
