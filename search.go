package vecflat

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/scan"
	"github.com/hupe1980/vecflat/internal/topk"
)

type searchOptions struct {
	selector Selector
	stats    *SearchStats
}

// SearchOption configures a single search.
type SearchOption func(*searchOptions)

// WithSelector restricts candidates to the labels sel admits.
func WithSelector(sel Selector) SearchOption {
	return func(o *searchOptions) {
		o.selector = sel
	}
}

// SearchStats reports the work done by a search.
type SearchStats struct {
	// Distances is the number of query/vector distances evaluated.
	Distances int64
	// BLAS reports whether the batch was scored with matrix multiplication.
	BLAS bool
}

// WithSearchStats makes the search fill stats.
func WithSearchStats(stats *SearchStats) SearchOption {
	return func(o *searchOptions) {
		o.stats = stats
	}
}

// Search returns, for every query, the k nearest live vectors best-first.
// Fewer than k neighbors are returned when fewer candidates exist. Equal
// distances are ordered by storage position.
func (idx *Index) Search(queries [][]float32, k int, opts ...SearchOption) ([][]Neighbor, error) {
	return idx.SearchContext(context.Background(), queries, k, opts...)
}

// SearchContext is Search with cancellation.
func (idx *Index) SearchContext(ctx context.Context, queries [][]float32, k int, opts ...SearchOption) ([][]Neighbor, error) {
	start := time.Now()
	so := applySearchOptions(opts)

	res, stats, err := idx.search(ctx, queries, k, so)

	idx.opts.metricsCollector.RecordSearch(len(queries), k, stats.Distances, time.Since(start), err)
	idx.opts.logger.LogSearch(ctx, len(queries), k, err)
	return res, err
}

func (idx *Index) search(ctx context.Context, queries [][]float32, k int, so searchOptions) ([][]Neighbor, scan.Stats, error) {
	if k <= 0 {
		return nil, scan.Stats{}, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if err := idx.checkDims(queries); err != nil {
		return nil, scan.Stats{}, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	items, stats, err := idx.scanner.KNN(ctx, queries, k, idx.filter(so.selector))
	if so.stats != nil {
		*so.stats = SearchStats{Distances: stats.Distances, BLAS: stats.BLAS}
	}
	if err != nil {
		return nil, stats, err
	}
	res, err := idx.toNeighbors(items)
	return res, stats, err
}

// RangeSearch returns, for every query, all live vectors with a distance
// below radius, or a similarity above radius for MetricInnerProduct and
// MetricJaccard, best-first.
func (idx *Index) RangeSearch(queries [][]float32, radius float32, opts ...SearchOption) ([][]Neighbor, error) {
	return idx.RangeSearchContext(context.Background(), queries, radius, opts...)
}

// RangeSearchContext is RangeSearch with cancellation.
func (idx *Index) RangeSearchContext(ctx context.Context, queries [][]float32, radius float32, opts ...SearchOption) ([][]Neighbor, error) {
	start := time.Now()
	so := applySearchOptions(opts)

	res, err := idx.rangeSearch(ctx, queries, radius, so)

	total := 0
	for _, r := range res {
		total += len(r)
	}
	idx.opts.metricsCollector.RecordRangeSearch(len(queries), total, time.Since(start), err)
	idx.opts.logger.LogRangeSearch(ctx, len(queries), radius, total, err)
	return res, err
}

func (idx *Index) rangeSearch(ctx context.Context, queries [][]float32, radius float32, so searchOptions) ([][]Neighbor, error) {
	if err := idx.checkDims(queries); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	items, stats, err := idx.scanner.Range(ctx, queries, radius, idx.filter(so.selector))
	if so.stats != nil {
		*so.stats = SearchStats{Distances: stats.Distances, BLAS: stats.BLAS}
	}
	if err != nil {
		return nil, err
	}
	return idx.toNeighbors(items)
}

func applySearchOptions(opts []SearchOption) searchOptions {
	var so searchOptions
	for _, fn := range opts {
		fn(&so)
	}
	return so
}

// filter turns a label selector into a slot filter. Callers hold mu.
func (idx *Index) filter(sel Selector) scan.Filter {
	if sel == nil {
		return nil
	}
	return func(slot uint32) bool {
		return sel.Contains(idx.labels.Lookup(slot))
	}
}

// toNeighbors maps scan results from slots to labels. Callers hold mu.
func (idx *Index) toNeighbors(items [][]topk.Item) ([][]Neighbor, error) {
	out := make([][]Neighbor, len(items))
	for qi, row := range items {
		out[qi] = make([]Neighbor, len(row))
		for i, it := range row {
			label, err := idx.labels.LabelOf(it.Slot)
			if err != nil {
				return nil, fmt.Errorf("%w: query %d: %w", ErrInconsistent, qi, err)
			}
			out[qi][i] = Neighbor{Label: label, Distance: it.Distance}
		}
	}
	return out, nil
}

// Reconstruct returns a copy of the vector stored under label.
func (idx *Index) Reconstruct(label Label) ([]float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	slot, err := idx.labels.SlotOf(label)
	if err != nil {
		return nil, translateLabelError(err, false)
	}
	out := make([]float32, idx.dim)
	idx.enc.Decode(out, idx.store.Read(slot))
	return out, nil
}

// ReconstructBatch returns copies of the vectors stored under labels. It
// fails without partial results if any label is not live.
func (idx *Index) ReconstructBatch(labels []Label) ([][]float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	slots, err := idx.resolve(labels)
	if err != nil {
		return nil, err
	}
	flat := make([]float32, len(labels)*idx.dim)
	out := make([][]float32, len(labels))
	for i, slot := range slots {
		out[i] = flat[i*idx.dim : (i+1)*idx.dim : (i+1)*idx.dim]
		idx.enc.Decode(out[i], idx.store.Read(slot))
	}
	return out, nil
}

// ComputeDistanceSubset returns the distance between queries[i] and each
// label in labels[i]. Every label is validated before anything is computed.
func (idx *Index) ComputeDistanceSubset(queries [][]float32, labels [][]Label) ([][]float32, error) {
	if len(queries) != len(labels) {
		return nil, fmt.Errorf("%w: %d queries but %d label lists", ErrInvalidArgument, len(queries), len(labels))
	}
	if err := idx.checkDims(queries); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	slots := make([][]uint32, len(labels))
	for i, row := range labels {
		s, err := idx.resolve(row)
		if err != nil {
			return nil, err
		}
		slots[i] = s
	}

	dc, err := idx.newComputer()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(queries))
	for i, q := range queries {
		dc.SetQuery(q)
		out[i] = make([]float32, len(slots[i]))
		for j, slot := range slots[i] {
			out[i][j] = dc.Distance(slot)
		}
	}
	return out, nil
}

// resolve maps labels to slots. Callers hold mu.
func (idx *Index) resolve(labels []Label) ([]uint32, error) {
	slots := make([]uint32, len(labels))
	for i, label := range labels {
		slot, err := idx.labels.SlotOf(label)
		if err != nil {
			return nil, translateLabelError(err, false)
		}
		slots[i] = slot
	}
	return slots, nil
}

func (idx *Index) newComputer() (*distance.Computer, error) {
	return distance.NewComputer(idx.opts.metric, idx.opts.metricArg, idx.dim, scan.Vectors(idx.store, idx.enc))
}

// DistanceComputer evaluates distances to stored vectors addressed by label.
// It is not safe for concurrent use, and must not be used concurrently with
// mutations of its index.
type DistanceComputer struct {
	idx *Index
	dc  *distance.Computer
	q   []float32
}

// DistanceComputer returns a new label-addressed distance computer.
func (idx *Index) DistanceComputer() (*DistanceComputer, error) {
	dc, err := idx.newComputer()
	if err != nil {
		return nil, err
	}
	return &DistanceComputer{idx: idx, dc: dc}, nil
}

// SetQuery sets the query of subsequent Distance calls. q is copied.
func (c *DistanceComputer) SetQuery(q []float32) error {
	if len(q) != c.idx.dim {
		return &ErrDimensionMismatch{Expected: c.idx.dim, Actual: len(q)}
	}
	c.q = append(c.q[:0], q...)
	c.dc.SetQuery(c.q)
	return nil
}

// Distance returns the distance between the query and label.
func (c *DistanceComputer) Distance(label Label) (float32, error) {
	if c.q == nil {
		return 0, fmt.Errorf("%w: no query set", ErrInvalidArgument)
	}
	c.idx.mu.RLock()
	defer c.idx.mu.RUnlock()

	slot, err := c.idx.labels.SlotOf(label)
	if err != nil {
		return 0, translateLabelError(err, false)
	}
	return c.dc.Distance(slot), nil
}

// SymmetricDistance returns the distance between two stored vectors.
func (c *DistanceComputer) SymmetricDistance(a, b Label) (float32, error) {
	c.idx.mu.RLock()
	defer c.idx.mu.RUnlock()

	slots, err := c.idx.resolve([]Label{a, b})
	if err != nil {
		return 0, err
	}
	return c.dc.Symmetric(slots[0], slots[1]), nil
}

// Count returns the number of query distances computed so far.
func (c *DistanceComputer) Count() int { return c.dc.Count() }
