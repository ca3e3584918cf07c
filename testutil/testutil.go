package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Neighbor is one entry of an exact result list. Index is the position of
// the vector in the dataset passed to BruteForce.
type Neighbor struct {
	Index    int
	Distance float32
}

// RNG wraps math/rand with a fixed seed. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates random vectors with values in range [0, 1).
// All vectors share one backing array.
func (r *RNG) UniformVectors(num, dimensions int) [][]float32 {
	return r.generate(num, dimensions, func() float32 { return r.rand.Float32() })
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num, dimensions int) [][]float32 {
	return r.generate(num, dimensions, func() float32 { return r.rand.Float32()*2 - 1 })
}

// GaussianVectors generates random vectors drawn from a standard normal distribution.
func (r *RNG) GaussianVectors(num, dimensions int) [][]float32 {
	return r.generate(num, dimensions, func() float32 { return float32(r.rand.NormFloat64()) })
}

// HistogramVectors generates non-negative vectors that sum to 1, as needed
// by the JensenShannon and BrayCurtis metrics.
func (r *RNG) HistogramVectors(num, dimensions int) [][]float32 {
	vectors := r.generate(num, dimensions, func() float32 { return r.rand.Float32() + 1e-3 })
	for _, vec := range vectors {
		var sum float32
		for _, v := range vec {
			sum += v
		}
		for j := range vec {
			vec[j] /= sum
		}
	}
	return vectors
}

// UnitVectors generates L2-normalized random vectors.
func (r *RNG) UnitVectors(num, dimensions int) [][]float32 {
	vectors := r.GaussianVectors(num, dimensions)
	for _, vec := range vectors {
		Normalize(vec)
	}
	return vectors
}

// ClusteredVectors generates vectors around random unit centroids.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}
	return vectors
}

func (r *RNG) generate(num, dimensions int, next func() float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = next()
		}
		vectors[i] = vec
	}
	return vectors
}

// Normalize scales v to unit L2 norm in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
}

// Flatten concatenates vectors into one row-major slice.
func Flatten(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, 0, len(vectors)*len(vectors[0]))
	for _, v := range vectors {
		out = append(out, v...)
	}
	return out
}

// SquaredL2 is a plain reference implementation of the squared Euclidean distance.
func SquaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

// Dot is a plain reference implementation of the inner product.
func Dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// BruteForce returns the exact k nearest entries of vectors for query.
// When similarity is true larger values rank first. Entries listed in skip
// are ignored. Ties break by ascending index.
func BruteForce(vectors [][]float32, query []float32, k int, fn func(a, b []float32) float32, similarity bool, skip map[int]bool) []Neighbor {
	all := make([]Neighbor, 0, len(vectors))
	for i, v := range vectors {
		if skip[i] {
			continue
		}
		all = append(all, Neighbor{Index: i, Distance: fn(query, v)})
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Distance != b.Distance {
			if similarity {
				return a.Distance > b.Distance
			}
			return a.Distance < b.Distance
		}
		return a.Index < b.Index
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// ComputeRecall returns the fraction of groundTruth indices present in approximate.
func ComputeRecall(groundTruth []Neighbor, approximate []int) float64 {
	if len(groundTruth) == 0 {
		if len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}
	truth := make(map[int]struct{}, len(groundTruth))
	for _, n := range groundTruth {
		truth[n.Index] = struct{}{}
	}
	hits := 0
	for _, idx := range approximate {
		if _, ok := truth[idx]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}
