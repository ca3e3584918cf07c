// Package prommetrics exports vecflat index metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := prommetrics.New(prommetrics.WithRegisterer(reg))
//	idx, _ := vecflat.New(128, vecflat.WithMetricsCollector(mc))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vecflat"
)

// Collector implements vecflat.MetricsCollector with Prometheus metrics.
type Collector struct {
	latency      *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	vectors      *prometheus.CounterVec
	distances    prometheus.Counter
	rangeResults prometheus.Counter
	pending      prometheus.Gauge
}

type options struct {
	namespace   string
	constLabels prometheus.Labels
	registerer  prometheus.Registerer
	buckets     []float64
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace sets the metric namespace. Default: "vecflat".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithConstLabels attaches labels to every metric, e.g. the index name.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// WithRegisterer sets where the metrics are registered.
// Default: prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithBuckets sets the latency histogram buckets in seconds.
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// New creates and registers a Collector.
func New(optFns ...Option) (*Collector, error) {
	opts := options{
		namespace:  "vecflat",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.ExponentialBuckets(10e-6, 4, 10),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.namespace,
			Name:        "operation_duration_seconds",
			Help:        "Latency of index operations.",
			ConstLabels: opts.constLabels,
			Buckets:     opts.buckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.namespace,
			Name:        "operations_total",
			Help:        "Index operations by type and outcome.",
			ConstLabels: opts.constLabels,
		}, []string{"op", "status"}),
		vectors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.namespace,
			Name:        "vectors_total",
			Help:        "Vectors added, labels deleted and queries searched.",
			ConstLabels: opts.constLabels,
		}, []string{"op"}),
		distances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.namespace,
			Name:        "distance_computations_total",
			Help:        "Query/vector distances evaluated by searches.",
			ConstLabels: opts.constLabels,
		}),
		rangeResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.namespace,
			Name:        "range_results_total",
			Help:        "Neighbors returned by range searches.",
			ConstLabels: opts.constLabels,
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.namespace,
			Name:        "free_slots",
			Help:        "Deleted slots waiting for reuse.",
			ConstLabels: opts.constLabels,
		}),
	}

	for _, m := range []prometheus.Collector{c.latency, c.ops, c.vectors, c.distances, c.rangeResults, c.pending} {
		if err := opts.registerer.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.latency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordAdd implements vecflat.MetricsCollector.
func (c *Collector) RecordAdd(count int, d time.Duration, err error) {
	c.observe("add", d, err)
	c.vectors.WithLabelValues("add").Add(float64(count))
}

// RecordDelete implements vecflat.MetricsCollector.
func (c *Collector) RecordDelete(count int, pending int64, d time.Duration, err error) {
	c.observe("delete", d, err)
	c.vectors.WithLabelValues("delete").Add(float64(count))
	c.pending.Set(float64(pending))
}

// RecordSearch implements vecflat.MetricsCollector.
func (c *Collector) RecordSearch(queries, _ int, distances int64, d time.Duration, err error) {
	c.observe("search", d, err)
	c.vectors.WithLabelValues("search").Add(float64(queries))
	c.distances.Add(float64(distances))
}

// RecordRangeSearch implements vecflat.MetricsCollector.
func (c *Collector) RecordRangeSearch(queries, results int, d time.Duration, err error) {
	c.observe("range_search", d, err)
	c.vectors.WithLabelValues("range_search").Add(float64(queries))
	c.rangeResults.Add(float64(results))
}

// RecordReset implements vecflat.MetricsCollector.
func (c *Collector) RecordReset() {
	c.ops.WithLabelValues("reset", "success").Inc()
	c.pending.Set(0)
}

var _ vecflat.MetricsCollector = (*Collector)(nil)
