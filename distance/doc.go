// Package distance provides the metric kernels and the per-metric Distance
// Computer used by the vecflat query engine.
//
// # Supported Metrics
//
//   - MetricL2: squared Euclidean distance (default, lower is better)
//   - MetricInnerProduct: dot product (similarity, higher is better)
//   - MetricL1, MetricLinf, MetricLp: Manhattan, Chebyshev and sum(|x-y|^p)
//   - MetricCanberra, MetricBrayCurtis, MetricJensenShannon: distances
//   - MetricJaccard: weighted Jaccard sum(min)/sum(max) (similarity)
//
// Dot products use github.com/viterin/vek when the CPU supports AVX2+FMA.
// Set VECFLAT_SIMD=generic to force the pure Go kernels.
//
// # Usage
//
//	fn, err := distance.Provider(distance.MetricL2, 0)
//	d := fn(a, b)
package distance
