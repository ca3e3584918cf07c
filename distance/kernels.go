package distance

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// Func computes the distance between two vectors of equal length.
type Func func(a, b []float32) float32

// Provider returns the kernel for metric m. arg is the metric argument
// (the exponent p for MetricLp, ignored otherwise).
func Provider(m Metric, arg float32) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricInnerProduct:
		return Dot, nil
	case MetricL1:
		return L1, nil
	case MetricLinf:
		return Linf, nil
	case MetricLp:
		if arg <= 0 {
			return nil, fmt.Errorf("%w: Lp requires a positive metric argument, got %v", ErrUnsupportedMetric, arg)
		}
		return func(a, b []float32) float32 { return Lp(a, b, arg) }, nil
	case MetricCanberra:
		return Canberra, nil
	case MetricBrayCurtis:
		return BrayCurtis, nil
	case MetricJensenShannon:
		return JensenShannon, nil
	case MetricJaccard:
		return Jaccard, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMetric, m)
	}
}

// Dot calculates the dot product of two vectors.
// Assumes len(a) == len(b).
func Dot(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	if accelerated {
		return vek32.Dot(a, b)
	}
	return dotGeneric(a, b)
}

func dotGeneric(a, b []float32) float32 {
	b = b[:len(a)]
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		s0 += a[i] * b[i]
	}
	return s0 + s1 + s2 + s3
}

// SquaredL2 calculates the squared Euclidean distance.
// Assumes len(a) == len(b).
func SquaredL2(a, b []float32) float32 {
	b = b[:len(a)]
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < len(a); i++ {
		d := a[i] - b[i]
		s0 += d * d
	}
	return s0 + s1 + s2 + s3
}

// SquaredNorm returns <v, v>.
func SquaredNorm(v []float32) float32 {
	return Dot(v, v)
}

// SquaredL2Batch4 computes the squared L2 distance from q to four vectors,
// loading each query component once.
func SquaredL2Batch4(q, y0, y1, y2, y3 []float32) (d0, d1, d2, d3 float32) {
	y0, y1, y2, y3 = y0[:len(q)], y1[:len(q)], y2[:len(q)], y3[:len(q)]
	for i, x := range q {
		t0 := x - y0[i]
		t1 := x - y1[i]
		t2 := x - y2[i]
		t3 := x - y3[i]
		d0 += t0 * t0
		d1 += t1 * t1
		d2 += t2 * t2
		d3 += t3 * t3
	}
	return d0, d1, d2, d3
}

// DotBatch4 computes the dot product of q with four vectors.
func DotBatch4(q, y0, y1, y2, y3 []float32) (d0, d1, d2, d3 float32) {
	if accelerated {
		return vek32.Dot(q, y0), vek32.Dot(q, y1), vek32.Dot(q, y2), vek32.Dot(q, y3)
	}
	y0, y1, y2, y3 = y0[:len(q)], y1[:len(q)], y2[:len(q)], y3[:len(q)]
	for i, x := range q {
		d0 += x * y0[i]
		d1 += x * y1[i]
		d2 += x * y2[i]
		d3 += x * y3[i]
	}
	return d0, d1, d2, d3
}

// L1 calculates the Manhattan distance.
func L1(a, b []float32) float32 {
	b = b[:len(a)]
	var s float32
	for i := range a {
		s += abs32(a[i] - b[i])
	}
	return s
}

// Linf calculates the Chebyshev distance.
func Linf(a, b []float32) float32 {
	b = b[:len(a)]
	var m float32
	for i := range a {
		if d := abs32(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}

// Lp returns sum(|a-b|^p). The p-th root is not taken, which preserves
// ordering and matches squared L2 for p=2.
func Lp(a, b []float32, p float32) float32 {
	b = b[:len(a)]
	var s float64
	for i := range a {
		s += math.Pow(float64(abs32(a[i]-b[i])), float64(p))
	}
	return float32(s)
}

// Canberra calculates sum(|a-b| / (|a|+|b|)). Dimensions where both values
// are zero contribute nothing.
func Canberra(a, b []float32) float32 {
	b = b[:len(a)]
	var s float32
	for i := range a {
		den := abs32(a[i]) + abs32(b[i])
		if den == 0 {
			continue
		}
		s += abs32(a[i]-b[i]) / den
	}
	return s
}

// BrayCurtis calculates sum|a-b| / sum|a+b|.
func BrayCurtis(a, b []float32) float32 {
	b = b[:len(a)]
	var num, den float32
	for i := range a {
		num += abs32(a[i] - b[i])
		den += abs32(a[i] + b[i])
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// JensenShannon calculates the Jensen-Shannon divergence of two
// non-negative vectors interpreted as distributions.
func JensenShannon(a, b []float32) float32 {
	b = b[:len(a)]
	var s float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		m := 0.5 * (x + y)
		if x > 0 {
			s += -x * math.Log(m/x)
		}
		if y > 0 {
			s += -y * math.Log(m/y)
		}
	}
	return float32(0.5 * s)
}

// Jaccard calculates the weighted Jaccard similarity sum(min)/sum(max).
func Jaccard(a, b []float32) float32 {
	b = b[:len(a)]
	var num, den float32
	for i := range a {
		num += min(a[i], b[i])
		den += max(a[i], b[i])
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func abs32(x float32) float32 {
	return math.Float32frombits(math.Float32bits(x) &^ (1 << 31))
}
