package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/vecflat"
	"github.com/hupe1980/vecflat/testutil"
)

const benchSeed = 42

func formatDim(dim int) string {
	return fmt.Sprintf("dim=%d", dim)
}

func formatCount(n int) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return fmt.Sprintf("n=%dM", n/1_000_000)
	case n >= 1_000 && n%1_000 == 0:
		return fmt.Sprintf("n=%dK", n/1_000)
	}
	return fmt.Sprintf("n=%d", n)
}

// buildIndex returns an index holding n uniform vectors.
func buildIndex(b *testing.B, n, dim int, opts ...vecflat.Option) (*vecflat.Index, *testutil.RNG) {
	b.Helper()

	idx, err := vecflat.New(dim, opts...)
	if err != nil {
		b.Fatal(err)
	}
	rng := testutil.NewRNG(benchSeed)
	if _, err := idx.Add(rng.UniformVectors(n, dim)); err != nil {
		b.Fatal(err)
	}
	return idx, rng
}

// reportRecall compares the index against a plain brute force on a few
// queries and reports the mean recall as a custom metric.
func reportRecall(b *testing.B, idx *vecflat.Index, data, queries [][]float32, k int) {
	b.Helper()

	res, err := idx.Search(queries, k)
	if err != nil {
		b.Fatal(err)
	}

	var sum float64
	for i, q := range queries {
		truth := testutil.BruteForce(data, q, k, testutil.SquaredL2, false, nil)
		got := make([]int, len(res[i]))
		for j, nb := range res[i] {
			got[j] = int(nb.Label)
		}
		sum += testutil.ComputeRecall(truth, got)
	}
	b.ReportMetric(sum/float64(len(queries)), "recall")
}
