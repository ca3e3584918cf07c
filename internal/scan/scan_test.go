package scan

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/slotstore"
	"github.com/hupe1980/vecflat/internal/topk"
)

func buildStore(t *testing.T, enc codec.Encoder, vecs [][]float32) *slotstore.Store {
	t.Helper()
	dim := len(vecs[0])
	st, err := slotstore.New(enc.CodeSize(dim))
	require.NoError(t, err)
	code := make([]byte, enc.CodeSize(dim))
	for _, v := range vecs {
		enc.Encode(code, v)
		_, err := st.Append(code)
		require.NoError(t, err)
	}
	return st
}

func randomVectors(rng *rand.Rand, n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
		for j := range out[i] {
			out[i][j] = rng.Float32()
		}
	}
	return out
}

// reference scores every live slot with the plain kernel and sorts.
func reference(t *testing.T, st *slotstore.Store, vecs [][]float32, m distance.Metric, q []float32, k int) []topk.Item {
	t.Helper()
	fn, err := distance.Provider(m, 0)
	require.NoError(t, err)
	var all []topk.Item
	for slot := range vecs {
		if !st.IsLive(uint32(slot)) {
			continue
		}
		all = append(all, topk.Item{Slot: uint32(slot), Distance: fn(q, vecs[slot])})
	}
	sim := m.IsSimilarity()
	sort.Slice(all, func(i, j int) bool { return topk.Better(all[i], all[j], sim) })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// assertRanking compares distances rank by rank. Batched kernels may round
// differently from the reference, so exact slot order is not compared.
func assertRanking(t *testing.T, st *slotstore.Store, want, got []topk.Item, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-4, msgAndArgs...)
		assert.True(t, st.IsLive(got[i].Slot), msgAndArgs...)
	}
}

func slots(items []topk.Item) []uint32 {
	out := make([]uint32, len(items))
	for i, it := range items {
		out[i] = it.Slot
	}
	return out
}

func TestKNN_SkipsDeleted(t *testing.T) {
	vecs := [][]float32{{0, 0}, {1, 0}, {0, 1}, {3, 3}}
	st := buildStore(t, codec.Flat{}, vecs)
	require.NoError(t, st.MarkDeleted(0))

	s, err := New(st, Config{Metric: distance.MetricL2, Dimension: 2, Encoder: codec.Flat{}})
	require.NoError(t, err)

	res, stats, err := s.KNN(context.Background(), [][]float32{{0, 0}}, 10, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []uint32{1, 2, 3}, slots(res[0]))
	assert.Equal(t, float32(1), res[0][0].Distance)
	assert.Equal(t, int64(3), stats.Distances)
	assert.False(t, stats.BLAS)
}

func TestKNN_Filter(t *testing.T) {
	vecs := [][]float32{{0, 0}, {1, 0}, {0, 1}, {3, 3}}
	st := buildStore(t, codec.Flat{}, vecs)

	s, err := New(st, Config{Metric: distance.MetricL2, Dimension: 2, Encoder: codec.Flat{}})
	require.NoError(t, err)

	res, _, err := s.KNN(context.Background(), [][]float32{{0, 0}}, 2, func(slot uint32) bool { return slot%2 == 1 })
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3}, slots(res[0]))
}

func TestKNN_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const dim = 16
	vecs := randomVectors(rng, 600, dim)
	queries := randomVectors(rng, 40, dim)

	for _, m := range []distance.Metric{distance.MetricL2, distance.MetricInnerProduct, distance.MetricL1, distance.MetricJaccard} {
		for _, enc := range []codec.Encoder{codec.Flat{}, codec.Float16{}} {
			t.Run(m.String()+"/"+enc.Name(), func(t *testing.T) {
				st := buildStore(t, enc, vecs)
				for slot := uint32(0); slot < 600; slot += 7 {
					require.NoError(t, st.MarkDeleted(slot))
				}

				// Reference distances are computed on decoded vectors.
				decoded := make([][]float32, len(vecs))
				for i := range vecs {
					decoded[i] = make([]float32, dim)
					enc.Decode(decoded[i], st.Read(uint32(i)))
				}

				s, err := New(st, Config{Metric: m, Dimension: dim, Encoder: enc, BLASThreshold: -1})
				require.NoError(t, err)

				res, _, err := s.KNN(context.Background(), queries, 10, nil)
				require.NoError(t, err)
				for qi, q := range queries {
					want := reference(t, st, decoded, m, q, 10)
					assertRanking(t, st, want, res[qi], "query %d", qi)
				}
			})
		}
	}
}

func TestKNN_BLASPath(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const dim = 8
	vecs := randomVectors(rng, 2500, dim)
	queries := randomVectors(rng, 30, dim)

	for _, m := range []distance.Metric{distance.MetricL2, distance.MetricInnerProduct} {
		t.Run(m.String(), func(t *testing.T) {
			st := buildStore(t, codec.Flat{}, vecs)
			for slot := uint32(5); slot < 2500; slot += 11 {
				require.NoError(t, st.MarkDeleted(slot))
			}

			s, err := New(st, Config{Metric: m, Dimension: dim, Encoder: codec.Flat{}, BLASThreshold: 20})
			require.NoError(t, err)

			res, stats, err := s.KNN(context.Background(), queries, 5, nil)
			require.NoError(t, err)
			assert.True(t, stats.BLAS)
			assert.Equal(t, int64(30*st.LiveLen()), stats.Distances)

			for qi, q := range queries {
				assertRanking(t, st, reference(t, st, vecs, m, q, 5), res[qi], "query %d", qi)
			}
		})
	}
}

func TestKNN_SplitSlots(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	const dim = 4
	vecs := randomVectors(rng, 3*minSlotsPerWorker, dim)
	st := buildStore(t, codec.Flat{}, vecs)
	q := randomVectors(rng, 1, dim)

	s, err := New(st, Config{Metric: distance.MetricL2, Dimension: dim, Encoder: codec.Flat{}, Parallelism: 4})
	require.NoError(t, err)

	res, stats, err := s.KNN(context.Background(), q, 20, nil)
	require.NoError(t, err)
	assertRanking(t, st, reference(t, st, vecs, distance.MetricL2, q[0], 20), res[0])
	assert.Equal(t, int64(len(vecs)), stats.Distances)
}

func TestRange(t *testing.T) {
	vecs := [][]float32{{0, 0}, {1, 0}, {0, 2}, {3, 3}}
	st := buildStore(t, codec.Flat{}, vecs)
	require.NoError(t, st.MarkDeleted(1))

	s, err := New(st, Config{Metric: distance.MetricL2, Dimension: 2, Encoder: codec.Flat{}})
	require.NoError(t, err)

	res, _, err := s.Range(context.Background(), [][]float32{{0, 0}, {10, 10}}, 4.5, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, slots(res[0]))
	assert.Empty(t, res[1])

	t.Run("strict radius", func(t *testing.T) {
		res, _, err := s.Range(context.Background(), [][]float32{{0, 0}}, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0}, slots(res[0]))
	})
}

func TestKNN_Cancelled(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vecs := randomVectors(rng, 3*cancelCheckInterval, 4)
	st := buildStore(t, codec.Flat{}, vecs)

	s, err := New(st, Config{Metric: distance.MetricL2, Dimension: 4, Encoder: codec.Flat{}, Parallelism: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.KNN(ctx, randomVectors(rng, 2, 4), 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingGate struct {
	acquired, released int
	ch                 chan struct{}
}

func (g *countingGate) AcquireScan(ctx context.Context) error {
	g.ch <- struct{}{}
	g.acquired++
	<-g.ch
	return nil
}

func (g *countingGate) ReleaseScan() {
	g.ch <- struct{}{}
	g.released++
	<-g.ch
}

func TestGate(t *testing.T) {
	vecs := [][]float32{{0}, {1}, {2}}
	st := buildStore(t, codec.Flat{}, vecs)
	gate := &countingGate{ch: make(chan struct{}, 1)}

	s, err := New(st, Config{Metric: distance.MetricL2, Dimension: 1, Encoder: codec.Flat{}, Gate: gate})
	require.NoError(t, err)

	_, _, err = s.KNN(context.Background(), [][]float32{{0}, {1}, {2}}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, gate.acquired)
	assert.Equal(t, 3, gate.released)
}

func TestNew_InvalidMetric(t *testing.T) {
	st, err := slotstore.New(4)
	require.NoError(t, err)
	_, err = New(st, Config{Metric: distance.Metric(99), Dimension: 1, Encoder: codec.Flat{}})
	assert.ErrorIs(t, err, distance.ErrUnsupportedMetric)
}
