package scan

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/topk"
)

func (s *Scanner) useBLAS(nq int) bool {
	if s.cfg.BLASThreshold < 0 || nq < s.cfg.BLASThreshold || s.viewer == nil {
		return false
	}
	if s.cfg.Metric != distance.MetricL2 && s.cfg.Metric != distance.MetricInnerProduct {
		return false
	}
	// The arena must be viewable in place; an unaligned arena falls back.
	_, ok := s.viewer.View(s.src.Range(0, uint32(min(s.src.Len(), 1))))
	return ok
}

// runBLAS scores query blocks against base blocks with one GEMM each.
// Query blocks are independent and run in parallel.
func (s *Scanner) runBLAS(ctx context.Context, queries [][]float32, filter Filter, newCollector func() collector, out [][]topk.Item, ndis *atomic.Int64) error {
	nq := len(queries)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)

	for q0 := 0; q0 < nq; q0 += blasQueryBlock {
		q1 := min(q0+blasQueryBlock, nq)
		g.Go(func() error {
			if err := s.acquire(gctx); err != nil {
				return err
			}
			defer s.release()

			return s.blasBlock(gctx, queries[q0:q1], filter, newCollector, out[q0:q1], ndis)
		})
	}
	return g.Wait()
}

func (s *Scanner) blasBlock(ctx context.Context, queries [][]float32, filter Filter, newCollector func() collector, out [][]topk.Item, ndis *atomic.Int64) error {
	dim := s.cfg.Dimension
	bq := len(queries)
	l2 := s.cfg.Metric == distance.MetricL2

	qdata := make([]float32, bq*dim)
	for i, q := range queries {
		copy(qdata[i*dim:], q)
	}
	var qnorms, xnorms []float32
	if l2 {
		qnorms = make([]float32, bq)
		distance.SquaredNorms(qdata, bq, dim, qnorms)
		xnorms = make([]float32, blasBaseBlock)
	}

	collectors := make([]collector, bq)
	for i := range collectors {
		collectors[i] = newCollector()
	}
	ip := make([]float32, bq*blasBaseBlock)
	n := uint32(s.src.Len())
	var cnt int64

	for lo := uint32(0); lo < n; lo += blasBaseBlock {
		if err := ctx.Err(); err != nil {
			ndis.Add(cnt)
			return err
		}
		hi := min(lo+blasBaseBlock, n)
		nb := int(hi - lo)
		base, _ := s.viewer.View(s.src.Range(lo, hi))

		distance.InnerProducts(qdata, bq, base, nb, dim, ip)
		if l2 {
			distance.SquaredNorms(base, nb, dim, xnorms)
		}

		for j := 0; j < nb; j++ {
			slot := lo + uint32(j)
			if !s.src.IsLive(slot) || (filter != nil && !filter(slot)) {
				continue
			}
			cnt += int64(bq)
			for i := 0; i < bq; i++ {
				d := ip[i*nb+j]
				if l2 {
					d = distance.ExpandL2(qnorms[i], xnorms[j], d)
				}
				collectors[i].Push(slot, d)
			}
		}
	}

	for i, c := range collectors {
		out[i] = c.Sorted()
	}
	ndis.Add(cnt)
	return nil
}
