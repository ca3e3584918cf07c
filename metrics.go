package vecflat

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordAdd is called after each Add. count is the number of vectors
	// added, which is less than requested when err is not nil.
	RecordAdd(count int, duration time.Duration, err error)

	// RecordDelete is called after each MarkDeleted with the number of
	// labels requested and the resulting free pool size.
	RecordDelete(count int, pending int64, duration time.Duration, err error)

	// RecordSearch is called after each k-nearest-neighbor search. distances
	// is the number of distance evaluations.
	RecordSearch(queries, k int, distances int64, duration time.Duration, err error)

	// RecordRangeSearch is called after each range search.
	RecordRangeSearch(queries, results int, duration time.Duration, err error)

	// RecordReset is called after each Reset.
	RecordReset()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(int, time.Duration, error)                {}
func (NoopMetricsCollector) RecordDelete(int, int64, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSearch(int, int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRangeSearch(int, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordReset()                                       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	AddCount          atomic.Int64
	AddVectors        atomic.Int64
	AddErrors         atomic.Int64
	DeleteCount       atomic.Int64
	DeleteLabels      atomic.Int64
	DeleteErrors      atomic.Int64
	PendingReuse      atomic.Int64
	SearchCount       atomic.Int64
	SearchQueries     atomic.Int64
	SearchErrors      atomic.Int64
	SearchDistances   atomic.Int64
	SearchTotalNanos  atomic.Int64
	RangeSearchCount  atomic.Int64
	RangeSearchErrors atomic.Int64
	RangeResults      atomic.Int64
	ResetCount        atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(count int, _ time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddVectors.Add(int64(count))
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(count int, pending int64, _ time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteLabels.Add(int64(count))
	b.PendingReuse.Store(pending)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(queries, _ int, distances int64, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchQueries.Add(int64(queries))
	b.SearchDistances.Add(distances)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordRangeSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeSearch(_, results int, _ time.Duration, err error) {
	b.RangeSearchCount.Add(1)
	b.RangeResults.Add(int64(results))
	if err != nil {
		b.RangeSearchErrors.Add(1)
	}
}

// RecordReset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReset() {
	b.ResetCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:          b.AddCount.Load(),
		AddVectors:        b.AddVectors.Load(),
		AddErrors:         b.AddErrors.Load(),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteLabels:      b.DeleteLabels.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		PendingReuse:      b.PendingReuse.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchQueries:     b.SearchQueries.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchDistances:   b.SearchDistances.Load(),
		SearchAvgNanos:    b.avgSearchNanos(),
		RangeSearchCount:  b.RangeSearchCount.Load(),
		RangeSearchErrors: b.RangeSearchErrors.Load(),
		RangeResults:      b.RangeResults.Load(),
		ResetCount:        b.ResetCount.Load(),
	}
}

func (b *BasicMetricsCollector) avgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount          int64
	AddVectors        int64
	AddErrors         int64
	DeleteCount       int64
	DeleteLabels      int64
	DeleteErrors      int64
	PendingReuse      int64
	SearchCount       int64
	SearchQueries     int64
	SearchErrors      int64
	SearchDistances   int64
	SearchAvgNanos    int64
	RangeSearchCount  int64
	RangeSearchErrors int64
	RangeResults      int64
	ResetCount        int64
}
