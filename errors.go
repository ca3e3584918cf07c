package vecflat

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/labelmap"
	"github.com/hupe1980/vecflat/internal/slotstore"
)

var (
	// ErrNotTrained is returned by Add on an index that requires training.
	ErrNotTrained = errors.New("index is not trained")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrUnknownLabel is returned for labels the index never assigned.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrDeleted is returned when reading a label that has been deleted.
	ErrDeleted = errors.New("label deleted")

	// ErrAlreadyDeleted is returned when deleting a label twice.
	ErrAlreadyDeleted = errors.New("label already deleted")

	// ErrResourceExhausted is returned when storage cannot grow.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrUnsupportedMetric is returned for unknown metrics or invalid metric
	// arguments.
	ErrUnsupportedMetric = distance.ErrUnsupportedMetric

	// ErrInvalidDimension is returned by New for a non-positive dimension.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrInconsistent is returned when the slot store and the label map
	// disagree, for example when a search reaches a slot without a label.
	ErrInconsistent = errors.New("index inconsistent")

	// ErrInvalidArgument is returned for malformed arguments not covered by a
	// more specific error.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (idx *Index) checkDims(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != idx.dim {
			return &ErrDimensionMismatch{Expected: idx.dim, Actual: len(v)}
		}
	}
	return nil
}

// translateLabelError maps label map errors onto the public sentinels.
// deleting selects ErrAlreadyDeleted over ErrDeleted for released labels.
func translateLabelError(err error, deleting bool) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, labelmap.ErrReleased):
		if deleting {
			return fmt.Errorf("%w: %w", ErrAlreadyDeleted, err)
		}
		return fmt.Errorf("%w: %w", ErrDeleted, err)
	case errors.Is(err, labelmap.ErrUnknownLabel):
		return fmt.Errorf("%w: %w", ErrUnknownLabel, err)
	}
	return err
}

func translateStoreError(err error) error {
	if errors.Is(err, slotstore.ErrFull) {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	return err
}
