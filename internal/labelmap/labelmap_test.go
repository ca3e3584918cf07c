package labelmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign(t *testing.T) {
	m := New()

	for i := 0; i < 3; i++ {
		label, err := m.Assign(uint32(i))
		require.NoError(t, err)
		assert.Equal(t, Label(i), label)
	}
	assert.Equal(t, Label(3), m.Next())
	assert.Equal(t, 3, m.Len())

	_, err := m.Assign(1)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, Label(3), m.Next(), "failed assign must not consume a label")
}

func TestRelease(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		_, err := m.Assign(uint32(i))
		require.NoError(t, err)
	}

	require.NoError(t, m.Release(1))
	assert.Equal(t, 2, m.Len())

	_, err := m.SlotOf(1)
	assert.ErrorIs(t, err, ErrReleased)

	_, err = m.LabelOf(1)
	assert.ErrorIs(t, err, ErrNoLabel)

	assert.ErrorIs(t, m.Release(1), ErrReleased)
	assert.ErrorIs(t, m.Release(42), ErrUnknownLabel)

	t.Run("reused slot gets fresh label", func(t *testing.T) {
		label, err := m.Assign(1)
		require.NoError(t, err)
		assert.Equal(t, Label(3), label)

		got, err := m.LabelOf(1)
		require.NoError(t, err)
		assert.Equal(t, Label(3), got)

		_, err = m.SlotOf(1)
		assert.ErrorIs(t, err, ErrReleased)
	})
}

func TestLookup(t *testing.T) {
	m := New()
	_, err := m.Assign(2)
	require.NoError(t, err)

	assert.Equal(t, NoLabel, m.Lookup(0))
	assert.Equal(t, Label(0), m.Lookup(2))
	assert.Equal(t, NoLabel, m.Lookup(100))

	_, err = m.SlotOf(-5)
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestReset(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		_, err := m.Assign(uint32(i))
		require.NoError(t, err)
	}

	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, Label(0), m.Next())

	label, err := m.Assign(0)
	require.NoError(t, err)
	assert.Equal(t, Label(0), label)
}

func TestRestore(t *testing.T) {
	m := New()
	require.NoError(t, m.Restore([]Label{4, NoLabel, 2}, 5))

	slot, err := m.SlotOf(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), slot)
	assert.Equal(t, Label(5), m.Next())

	_, err = m.SlotOf(3)
	assert.ErrorIs(t, err, ErrReleased)

	assert.Error(t, m.Restore([]Label{1, 1}, 2))
	assert.ErrorIs(t, m.Restore([]Label{7}, 2), ErrUnknownLabel)
}
