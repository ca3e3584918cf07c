package integration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecflat"
	"github.com/hupe1980/vecflat/blobstore"
	"github.com/hupe1980/vecflat/persistence"
	"github.com/hupe1980/vecflat/testutil"
)

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())

	// 1. Create
	idx, err := vecflat.New(2, vecflat.WithSnapshotCompression(persistence.CompressionZstd))
	require.NoError(t, err)

	// 2. Add
	labels, err := idx.Add([][]float32{{1, 0}, {0, 1}, {-1, 0}})
	require.NoError(t, err)
	assert.Equal(t, []vecflat.Label{0, 1, 2}, labels)

	// 3. Reconstruct (verify add)
	vec, err := idx.Reconstruct(1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 1}, vec, 1e-6)

	// 4. Search (visible)
	res, err := idx.Search([][]float32{{1, 0}}, 1)
	require.NoError(t, err)
	require.Len(t, res[0], 1)
	assert.Equal(t, vecflat.Label(0), res[0][0].Label)

	// 5. "Update" is delete plus add: the label changes, the slot is reused
	free, err := idx.MarkDeleted(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), free)

	labels, err = idx.Add([][]float32{{0.5, 0.5}})
	require.NoError(t, err)
	assert.Equal(t, []vecflat.Label{3}, labels)
	assert.Equal(t, 3, idx.Stats().SlotCount)

	_, err = idx.Reconstruct(0)
	require.ErrorIs(t, err, vecflat.ErrDeleted)

	res, err = idx.Search([][]float32{{1, 0}}, 3)
	require.NoError(t, err)
	for _, nb := range res[0] {
		assert.NotEqual(t, vecflat.Label(0), nb.Label)
	}
	assert.Equal(t, vecflat.Label(3), res[0][0].Label)

	// 6. Snapshot and restore
	require.NoError(t, idx.SaveSnapshot(ctx, store, "lifecycle.vfs"))

	restored, err := vecflat.LoadSnapshot(ctx, store, "lifecycle.vfs")
	require.NoError(t, err)
	require.NoError(t, restored.Validate())

	want := idx.Stats()
	got := restored.Stats()
	want.MemoryBytes, got.MemoryBytes = 0, 0
	assert.Equal(t, want, got)

	again, err := restored.Search([][]float32{{1, 0}}, 3)
	require.NoError(t, err)
	assert.Equal(t, res, again)

	// 7. Continue after restore: labels keep counting, the free pool carries over
	_, err = restored.MarkDeleted(1)
	require.NoError(t, err)
	labels, err = restored.Add([][]float32{{0, -1}, {2, 2}})
	require.NoError(t, err)
	assert.Equal(t, []vecflat.Label{4, 5}, labels)
	assert.Equal(t, 4, restored.Stats().SlotCount)

	// 8. Delete everything
	_, err = restored.MarkDeleted(2, 3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())

	res, err = restored.Search([][]float32{{1, 0}}, 5)
	require.NoError(t, err)
	assert.Empty(t, res[0])

	_, err = restored.MarkDeleted(5)
	require.ErrorIs(t, err, vecflat.ErrAlreadyDeleted)
	_, err = restored.MarkDeleted(99)
	require.ErrorIs(t, err, vecflat.ErrUnknownLabel)

	// 9. Reset
	restored.Reset()
	stats := restored.Stats()
	assert.Zero(t, stats.SlotCount)
	assert.Zero(t, stats.FreeCount)

	// 10. Cleanup
	require.NoError(t, store.Delete(ctx, "lifecycle.vfs"))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	const (
		dim     = 16
		initial = 2000
		writers = 2
		readers = 4
		rounds  = 50
	)

	idx, err := vecflat.New(dim)
	require.NoError(t, err)

	seed := testutil.NewRNG(1)
	_, err = idx.Add(seed.UniformVectors(initial, dim))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, writers+readers)

	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := testutil.NewRNG(int64(100 + w))
			for range rounds {
				labels, err := idx.Add(rng.UniformVectors(10, dim))
				if err != nil {
					errs <- err
					return
				}
				if _, err := idx.MarkDeleted(labels[:5]...); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	for r := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := testutil.NewRNG(int64(200 + r))
			for range rounds {
				res, err := idx.Search(rng.UniformVectors(4, dim), 5)
				if err != nil {
					errs <- err
					return
				}
				for _, row := range res {
					if len(row) != 5 {
						errs <- assert.AnError
						return
					}
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, idx.Validate())
	stats := idx.Stats()
	assert.Equal(t, initial+writers*rounds*5, stats.LiveCount)
	assert.Equal(t, vecflat.Label(initial+writers*rounds*10), stats.NextLabel)
}
