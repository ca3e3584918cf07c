package vecflat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/labelmap"
	"github.com/hupe1980/vecflat/internal/resource"
	"github.com/hupe1980/vecflat/internal/scan"
	"github.com/hupe1980/vecflat/internal/slotstore"
)

// Label is the stable external identifier of a vector. Labels are assigned
// from 0 upwards and never reused, even after deletion.
type Label = labelmap.Label

// Metric is a distance or similarity function.
type Metric = distance.Metric

// Supported metrics.
const (
	MetricL2            = distance.MetricL2
	MetricInnerProduct  = distance.MetricInnerProduct
	MetricL1            = distance.MetricL1
	MetricLinf          = distance.MetricLinf
	MetricLp            = distance.MetricLp
	MetricCanberra      = distance.MetricCanberra
	MetricBrayCurtis    = distance.MetricBrayCurtis
	MetricJensenShannon = distance.MetricJensenShannon
	MetricJaccard       = distance.MetricJaccard
)

// Neighbor is one search result.
type Neighbor struct {
	Label    Label
	Distance float32
}

// Index is a mutable exact vector index.
//
// Vectors live in fixed-size slots. Deleting a label frees its slot, and the
// next Add fills freed slots, smallest first, before growing storage. Labels
// never move: a reused slot receives a fresh label.
//
// Mutations take an exclusive lock, queries a shared one.
type Index struct {
	mu sync.RWMutex

	dim     int
	opts    options
	enc     codec.Encoder
	trained bool

	store   *slotstore.Store
	labels  *labelmap.Map
	scanner *scan.Scanner
	rc      *resource.Controller

	code []byte // encode scratch, guarded by mu
}

// New creates an empty index for vectors of dimension dim.
func New(dim int, optFns ...Option) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := distance.Provider(opts.metric, opts.metricArg); err != nil {
		return nil, err
	}
	opts.logger = opts.logger.WithDimension(dim)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   opts.memoryLimit,
		MaxScanWorkers:     opts.maxScanWorkers,
		IOLimitBytesPerSec: opts.ioLimit,
	})

	codeSize := opts.encoder.CodeSize(dim)
	store, err := slotstore.New(codeSize, slotstore.WithReserver(rc))
	if err != nil {
		return nil, err
	}

	scanner, err := scan.New(store, scan.Config{
		Metric:        opts.metric,
		MetricArg:     opts.metricArg,
		Dimension:     dim,
		Encoder:       opts.encoder,
		Parallelism:   opts.parallelism,
		BLASThreshold: opts.blasThreshold,
		Gate:          rc,
	})
	if err != nil {
		return nil, err
	}

	return &Index{
		dim:     dim,
		opts:    opts,
		enc:     opts.encoder,
		trained: !opts.trainingRequired,
		store:   store,
		labels:  labelmap.New(),
		scanner: scanner,
		rc:      rc,
		code:    make([]byte, codeSize),
	}, nil
}

// Dimension returns the vector dimension.
func (idx *Index) Dimension() int { return idx.dim }

// Metric returns the configured metric.
func (idx *Index) Metric() Metric { return idx.opts.metric }

// IsTrained reports whether Add is allowed.
func (idx *Index) IsTrained() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.trained
}

// Train prepares an index created WithTrainingRequired. Flat storage learns
// no parameters; the vectors are only checked for dimension.
func (idx *Index) Train(vectors [][]float32) error {
	if err := idx.checkDims(vectors); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.trained = true
	idx.mu.Unlock()
	return nil
}

// Add inserts vectors and returns their labels in input order.
//
// All vectors are validated before anything is written. Freed slots are
// reused smallest first, then storage grows. If storage cannot grow, the
// vectors written so far keep their labels, which are returned together
// with an error wrapping ErrResourceExhausted.
func (idx *Index) Add(vectors [][]float32) ([]Label, error) {
	start := time.Now()

	idx.mu.Lock()
	labels, err := idx.add(vectors)
	idx.mu.Unlock()

	idx.opts.metricsCollector.RecordAdd(len(labels), time.Since(start), err)
	idx.opts.logger.LogAdd(context.Background(), len(vectors), len(labels), err)
	return labels, err
}

func (idx *Index) add(vectors [][]float32) ([]Label, error) {
	if !idx.trained {
		return nil, ErrNotTrained
	}
	if err := idx.checkDims(vectors); err != nil {
		return nil, err
	}

	labels := make([]Label, 0, len(vectors))
	for _, v := range vectors {
		idx.enc.Encode(idx.code, v)

		slot, reused := idx.store.Acquire()
		if reused {
			if err := idx.store.Overwrite(slot, idx.code); err != nil {
				_ = idx.store.Unreserve(slot)
				return labels, err
			}
		} else {
			var err error
			if slot, err = idx.store.Append(idx.code); err != nil {
				return labels, fmt.Errorf("added %d of %d vectors: %w", len(labels), len(vectors), translateStoreError(err))
			}
		}

		label, err := idx.labels.Assign(slot)
		if err != nil {
			_ = idx.store.MarkDeleted(slot)
			return labels, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// MarkDeleted deletes labels in order and returns the number of slots
// pending reuse.
//
// Deleting an unknown label fails with ErrUnknownLabel, deleting a label
// twice with ErrAlreadyDeleted. Labels before the failing one stay deleted.
func (idx *Index) MarkDeleted(labels ...Label) (int64, error) {
	start := time.Now()

	idx.mu.Lock()
	pending, err := idx.markDeleted(labels)
	idx.mu.Unlock()

	idx.opts.metricsCollector.RecordDelete(len(labels), pending, time.Since(start), err)
	idx.opts.logger.LogDelete(context.Background(), len(labels), pending, err)
	return pending, err
}

func (idx *Index) markDeleted(labels []Label) (int64, error) {
	for _, label := range labels {
		slot, err := idx.labels.SlotOf(label)
		if err != nil {
			return int64(idx.store.FreeLen()), translateLabelError(err, true)
		}
		if err := idx.store.MarkDeleted(slot); err != nil {
			return int64(idx.store.FreeLen()), fmt.Errorf("label %d: %w", label, err)
		}
		if err := idx.labels.Release(label); err != nil {
			return int64(idx.store.FreeLen()), translateLabelError(err, true)
		}
	}
	return int64(idx.store.FreeLen()), nil
}

// Reset drops every vector and label. The next Add assigns labels from 0.
func (idx *Index) Reset() {
	idx.mu.Lock()
	dropped := idx.labels.Len()
	idx.store.Reset()
	idx.labels.Reset()
	idx.mu.Unlock()

	idx.opts.metricsCollector.RecordReset()
	idx.opts.logger.LogReset(context.Background(), dropped)
}

// Stats describes the storage state of an index.
type Stats struct {
	Dimension   int
	Metric      Metric
	Encoder     string
	CodeSize    int
	SlotCount   int
	LiveCount   int
	FreeCount   int
	NextLabel   Label
	MemoryBytes int64
}

// Stats returns the current storage state.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return Stats{
		Dimension:   idx.dim,
		Metric:      idx.opts.metric,
		Encoder:     idx.enc.Name(),
		CodeSize:    idx.store.CodeSize(),
		SlotCount:   idx.store.Len(),
		LiveCount:   idx.store.LiveLen(),
		FreeCount:   idx.store.FreeLen(),
		NextLabel:   idx.labels.Next(),
		MemoryBytes: idx.store.MemoryBytes(),
	}
}

// Len returns the number of live vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.labels.Len()
}

// Validate checks that slots, labels and the free pool agree: every slot is
// either live with exactly one label or free without one.
func (idx *Index) Validate() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := idx.store.Len()
	if live, free := idx.store.LiveLen(), idx.store.FreeLen(); live+free != n {
		return fmt.Errorf("slot accounting: %d live + %d free != %d slots", live, free, n)
	}
	if idx.labels.Len() != idx.store.LiveLen() {
		return fmt.Errorf("%d labels for %d live slots", idx.labels.Len(), idx.store.LiveLen())
	}

	for slot := uint32(0); int(slot) < n; slot++ {
		label := idx.labels.Lookup(slot)
		switch {
		case idx.store.IsLive(slot):
			if label == labelmap.NoLabel {
				return fmt.Errorf("live slot %d has no label", slot)
			}
			back, err := idx.labels.SlotOf(label)
			if err != nil || back != slot {
				return fmt.Errorf("label %d of slot %d maps back to slot %d (%v)", label, slot, back, err)
			}
			if label >= idx.labels.Next() {
				return fmt.Errorf("label %d of slot %d not below next label %d", label, slot, idx.labels.Next())
			}
		case idx.store.IsFree(slot):
			if label != labelmap.NoLabel {
				return fmt.Errorf("free slot %d still has label %d", slot, label)
			}
		default:
			return fmt.Errorf("slot %d is reserved outside of Add", slot)
		}
	}
	return nil
}
