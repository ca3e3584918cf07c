package distance

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnsupportedMetric is returned for metrics without a registered kernel.
var ErrUnsupportedMetric = errors.New("unsupported metric")

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricInnerProduct
	MetricL1
	MetricLinf
	MetricLp
	MetricCanberra
	MetricBrayCurtis
	MetricJensenShannon
	MetricJaccard
)

var metricNames = map[Metric]string{
	MetricL2:            "L2",
	MetricInnerProduct:  "InnerProduct",
	MetricL1:            "L1",
	MetricLinf:          "Linf",
	MetricLp:            "Lp",
	MetricCanberra:      "Canberra",
	MetricBrayCurtis:    "BrayCurtis",
	MetricJensenShannon: "JensenShannon",
	MetricJaccard:       "Jaccard",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", m)
}

// ParseMetric parses a metric name (case-insensitive). "ip" and "dot" are
// accepted as aliases of InnerProduct.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "ip", "dot":
		return MetricInnerProduct, nil
	}
	for m, name := range metricNames {
		if strings.ToLower(name) == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMetric, s)
}

// Valid reports whether m has a kernel.
func (m Metric) Valid() bool {
	_, ok := metricNames[m]
	return ok
}

// IsSimilarity reports whether larger values mean closer vectors.
func (m Metric) IsSimilarity() bool {
	return m == MetricInnerProduct || m == MetricJaccard
}

// Better reports whether distance a ranks before distance b under m.
func (m Metric) Better(a, b float32) bool {
	if m.IsSimilarity() {
		return a > b
	}
	return a < b
}

// Within reports whether d lies inside radius: d < radius for distances,
// d > radius for similarities.
func (m Metric) Within(d, radius float32) bool {
	if m.IsSimilarity() {
		return d > radius
	}
	return d < radius
}

// Worst returns the value that ranks after every finite distance.
func (m Metric) Worst() float32 {
	if m.IsSimilarity() {
		return float32(math.Inf(-1))
	}
	return float32(math.Inf(1))
}
