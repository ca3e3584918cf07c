package scan

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/topk"
)

const (
	// DefaultBLASThreshold is the query count from which the GEMM path is used.
	DefaultBLASThreshold = 20

	blasQueryBlock = 256
	blasBaseBlock  = 1024

	// minSlotsPerWorker keeps single-query scans from being split into
	// pieces too small to amortize a goroutine.
	minSlotsPerWorker = 4096

	// cancelCheckInterval is how many slots are scanned between context checks.
	cancelCheckInterval = 8192
)

// Filter reports whether a live slot is a candidate. A nil Filter admits all.
// Filters are called from several goroutines at once.
type Filter func(slot uint32) bool

// Gate bounds the number of scan goroutines across scanners.
type Gate interface {
	AcquireScan(ctx context.Context) error
	ReleaseScan()
}

// Config configures a Scanner.
type Config struct {
	Metric    distance.Metric
	MetricArg float32
	Dimension int
	Encoder   codec.Encoder

	// Parallelism caps the goroutines of one scan. Zero means GOMAXPROCS.
	Parallelism int

	// BLASThreshold is the batch size from which the GEMM path is taken.
	// Negative disables it, zero means DefaultBLASThreshold.
	BLASThreshold int

	// Gate, when set, is acquired by every scan goroutine.
	Gate Gate
}

// Scanner scans one Source. It holds no mutable state and is safe for
// concurrent use as long as the Source is not mutated during a scan.
type Scanner struct {
	cfg    Config
	src    Source
	vecs   distance.Vectors
	viewer codec.Viewer
}

// Stats describes the work of one scan.
type Stats struct {
	// Distances is the number of query/slot distances evaluated.
	Distances int64
	// BLAS reports whether the GEMM path was taken.
	BLAS bool
}

// New returns a Scanner over src.
func New(src Source, cfg Config) (*Scanner, error) {
	if _, err := distance.Provider(cfg.Metric, cfg.MetricArg); err != nil {
		return nil, err
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	if cfg.BLASThreshold == 0 {
		cfg.BLASThreshold = DefaultBLASThreshold
	}

	s := &Scanner{
		cfg:  cfg,
		src:  src,
		vecs: Vectors(src, cfg.Encoder),
	}
	s.viewer, _ = cfg.Encoder.(codec.Viewer)
	return s, nil
}

// collector is the common face of topk.Heap and topk.Range.
type collector interface {
	Push(slot uint32, dist float32) bool
	Sorted() []topk.Item
}

// KNN returns, per query, the k best candidate slots best-first.
func (s *Scanner) KNN(ctx context.Context, queries [][]float32, k int, filter Filter) ([][]topk.Item, Stats, error) {
	sim := s.cfg.Metric.IsSimilarity()
	// No query can return more candidates than there are slots.
	k = min(k, s.src.Len())
	return s.run(ctx, queries, filter, func() collector {
		return topk.New(k, sim)
	})
}

// Range returns, per query, every candidate slot strictly within radius,
// best-first.
func (s *Scanner) Range(ctx context.Context, queries [][]float32, radius float32, filter Filter) ([][]topk.Item, Stats, error) {
	sim := s.cfg.Metric.IsSimilarity()
	return s.run(ctx, queries, filter, func() collector {
		return topk.NewRange(radius, sim)
	})
}

func (s *Scanner) run(ctx context.Context, queries [][]float32, filter Filter, newCollector func() collector) ([][]topk.Item, Stats, error) {
	nq := len(queries)
	out := make([][]topk.Item, nq)
	if nq == 0 {
		return out, Stats{}, nil
	}

	n := uint32(s.src.Len())
	var ndis atomic.Int64

	switch {
	case s.useBLAS(nq):
		err := s.runBLAS(ctx, queries, filter, newCollector, out, &ndis)
		return out, Stats{Distances: ndis.Load(), BLAS: true}, err
	case nq == 1 && s.cfg.Parallelism > 1 && int(n) >= 2*minSlotsPerWorker:
		err := s.runSplitSlots(ctx, queries[0], filter, newCollector, out, &ndis)
		return out, Stats{Distances: ndis.Load()}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for qi := range queries {
		g.Go(func() error {
			if err := s.acquire(gctx); err != nil {
				return err
			}
			defer s.release()

			c := newCollector()
			cnt, err := s.scanQuery(gctx, queries[qi], 0, n, filter, c)
			ndis.Add(cnt)
			if err != nil {
				return err
			}
			out[qi] = c.Sorted()
			return nil
		})
	}
	err := g.Wait()
	return out, Stats{Distances: ndis.Load()}, err
}

// runSplitSlots scans one query with the slot range split across workers
// and merges the partial results.
func (s *Scanner) runSplitSlots(ctx context.Context, q []float32, filter Filter, newCollector func() collector, out [][]topk.Item, ndis *atomic.Int64) error {
	n := uint32(s.src.Len())
	workers := min(s.cfg.Parallelism, int(n)/minSlotsPerWorker)
	chunk := (n + uint32(workers) - 1) / uint32(workers)
	partial := make([][]topk.Item, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := uint32(w) * chunk
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := s.acquire(gctx); err != nil {
				return err
			}
			defer s.release()

			c := newCollector()
			cnt, err := s.scanQuery(gctx, q, lo, hi, filter, c)
			ndis.Add(cnt)
			if err != nil {
				return err
			}
			partial[w] = c.Sorted()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := newCollector()
	for _, items := range partial {
		for _, it := range items {
			merged.Push(it.Slot, it.Distance)
		}
	}
	out[0] = merged.Sorted()
	return nil
}

// scanQuery scores slots [lo, hi) against q, four at a time.
func (s *Scanner) scanQuery(ctx context.Context, q []float32, lo, hi uint32, filter Filter, c collector) (int64, error) {
	dc, err := distance.NewComputer(s.cfg.Metric, s.cfg.MetricArg, s.cfg.Dimension, s.vecs)
	if err != nil {
		return 0, err
	}
	dc.SetQuery(q)

	var (
		buf [4]uint32
		nb  int
	)
	for slot := lo; slot < hi; slot++ {
		if (slot-lo)%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return int64(dc.Count()), err
			}
		}
		if !s.src.IsLive(slot) || (filter != nil && !filter(slot)) {
			continue
		}
		buf[nb] = slot
		nb++
		if nb == 4 {
			d := dc.Distances4(buf)
			for i := 0; i < 4; i++ {
				c.Push(buf[i], d[i])
			}
			nb = 0
		}
	}
	for i := 0; i < nb; i++ {
		c.Push(buf[i], dc.Distance(buf[i]))
	}
	return int64(dc.Count()), nil
}

func (s *Scanner) acquire(ctx context.Context) error {
	if s.cfg.Gate == nil {
		return nil
	}
	return s.cfg.Gate.AcquireScan(ctx)
}

func (s *Scanner) release() {
	if s.cfg.Gate != nil {
		s.cfg.Gate.ReleaseScan()
	}
}
