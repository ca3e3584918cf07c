package vecflat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/vecflat/blobstore"
	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/resource"
	"github.com/hupe1980/vecflat/persistence"
)

// ErrCorruptSnapshot is returned when a snapshot cannot be restored.
var ErrCorruptSnapshot = persistence.ErrCorrupt

// Save writes a snapshot of the index to w and returns the bytes written.
func (idx *Index) Save(w io.Writer) (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := &persistence.Snapshot{
		Manifest: persistence.Manifest{
			Dimension: idx.dim,
			Metric:    idx.opts.metric.String(),
			MetricArg: idx.opts.metricArg,
			Encoder:   idx.enc.Name(),
			CodeSize:  idx.store.CodeSize(),
			SlotCount: idx.store.Len(),
			LiveCount: idx.store.LiveLen(),
			NextLabel: idx.labels.Next(),
		},
		Codes:  idx.store.Codes(),
		Free:   idx.store.FreePool(),
		Labels: idx.labels.Inverse(),
	}
	// Slots appended past the last labelled one have no inverse entry yet.
	if len(snap.Labels) < idx.store.Len() {
		labels := make([]Label, idx.store.Len())
		n := copy(labels, snap.Labels)
		for i := n; i < len(labels); i++ {
			labels[i] = idx.labels.Lookup(uint32(i))
		}
		snap.Labels = labels
	}

	return persistence.Encode(w, snap,
		persistence.WithCompression(idx.opts.compression),
		persistence.WithCodec(idx.opts.codec),
	)
}

// Load restores an index from a snapshot written by Save. Dimension, metric
// and encoder come from the snapshot; optFns configure everything else.
func Load(r io.Reader, optFns ...Option) (*Index, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	snap, err := persistence.Decode(r, persistence.WithCodec(opts.codec))
	if err != nil {
		return nil, err
	}
	m := snap.Manifest

	metric, err := distance.ParseMetric(m.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	enc, ok := codec.EncoderByName(m.Encoder)
	if !ok {
		return nil, fmt.Errorf("%w: unknown encoder %q", ErrCorruptSnapshot, m.Encoder)
	}
	if enc.CodeSize(m.Dimension) != m.CodeSize {
		return nil, fmt.Errorf("%w: encoder %s needs %d bytes per vector, snapshot has %d",
			ErrCorruptSnapshot, enc.Name(), enc.CodeSize(m.Dimension), m.CodeSize)
	}

	fns := append(append([]Option{}, optFns...),
		WithMetric(metric),
		WithMetricArg(m.MetricArg),
		WithEncoder(enc),
	)
	idx, err := New(m.Dimension, fns...)
	if err != nil {
		return nil, err
	}

	if err := idx.store.Restore(snap.Codes, snap.Free); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, translateStoreError(err))
	}
	if err := idx.labels.Restore(snap.Labels, m.NextLabel); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	idx.trained = true
	return idx, nil
}

// SaveSnapshot streams a snapshot into store under name. The blob only
// becomes visible when the upload succeeds.
func (idx *Index) SaveSnapshot(ctx context.Context, store blobstore.BlobStore, name string) (err error) {
	var size int64
	defer func() {
		idx.opts.logger.LogSnapshot(ctx, "save", name, size, err)
	}()

	blob, err := store.Create(ctx, name)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(resource.NewRateLimitedWriter(ctx, blob, idx.rc), 1<<20)
	size, err = idx.Save(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		return errors.Join(err, blob.Abort())
	}
	return blob.Close()
}

// LoadSnapshot restores an index from the blob name in store.
func LoadSnapshot(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Index, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: opts.ioLimit})

	blob, err := store.Open(ctx, name)
	if err != nil {
		opts.logger.LogSnapshot(ctx, "load", name, 0, err)
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	body, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		opts.logger.LogSnapshot(ctx, "load", name, 0, err)
		return nil, err
	}
	defer func() { _ = body.Close() }()

	r := bufio.NewReaderSize(resource.NewRateLimitedReader(ctx, body, rc), 1<<20)
	idx, err := Load(r, optFns...)
	opts.logger.LogSnapshot(ctx, "load", name, blob.Size(), err)
	return idx, err
}
