package vecflat

import (
	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/distance"
	"github.com/hupe1980/vecflat/internal/scan"
	"github.com/hupe1980/vecflat/persistence"
)

type options struct {
	metric           distance.Metric
	metricArg        float32
	encoder          codec.Encoder
	logger           *Logger
	metricsCollector MetricsCollector
	parallelism      int
	blasThreshold    int
	memoryLimit      int64
	maxScanWorkers   int64
	ioLimit          int64
	trainingRequired bool
	codec            codec.Codec
	compression      persistence.Compression
}

func defaultOptions() options {
	return options{
		metric:           distance.MetricL2,
		encoder:          codec.Flat{},
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		blasThreshold:    scan.DefaultBLASThreshold,
		codec:            codec.Default,
		compression:      persistence.CompressionZstd,
	}
}

// Option configures an Index.
type Option func(*options)

// WithMetric sets the distance metric. Default: MetricL2.
func WithMetric(m Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMetricArg sets the metric argument, the exponent p for MetricLp.
func WithMetricArg(arg float32) Option {
	return func(o *options) {
		o.metricArg = arg
	}
}

// WithEncoder sets the fixed-width encoder of stored vectors.
// If nil is passed, codec.Flat is used.
func WithEncoder(enc codec.Encoder) Option {
	return func(o *options) {
		if enc == nil {
			enc = codec.Flat{}
		}
		o.encoder = enc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	idx, _ := vecflat.New(128, vecflat.WithLogger(vecflat.NewJSONLogger(slog.LevelDebug)))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecflat.BasicMetricsCollector{}
//	idx, _ := vecflat.New(128, vecflat.WithMetricsCollector(metrics))
//	// ... use idx ...
//	fmt.Println(metrics.GetStats().SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithParallelism caps the goroutines used by one query batch.
// Zero or less means GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithBLASThreshold sets the query batch size from which L2 and inner
// product searches are computed with matrix multiplication. A negative value
// disables the GEMM path.
func WithBLASThreshold(n int) Option {
	return func(o *options) {
		o.blasThreshold = n
	}
}

// WithMemoryLimit caps the bytes the index may reserve for vector codes.
// Add fails with ErrResourceExhausted once the limit is reached.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxScanWorkers caps scan goroutines across all concurrent searches.
func WithMaxScanWorkers(n int64) Option {
	return func(o *options) {
		o.maxScanWorkers = n
	}
}

// WithSnapshotRateLimit caps snapshot IO in bytes per second.
func WithSnapshotRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithTrainingRequired creates the index untrained: Add fails with
// ErrNotTrained until Train is called.
func WithTrainingRequired() Option {
	return func(o *options) {
		o.trainingRequired = true
	}
}

// WithCodec configures the codec used for the snapshot manifest.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithSnapshotCompression selects the compression of saved snapshots.
// Default: zstd.
func WithSnapshotCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}
