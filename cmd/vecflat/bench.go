package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecflat"
	"github.com/hupe1980/vecflat/testutil"
)

var (
	benchN       int
	benchQueries int
	benchK       int
	benchChurn   float64
	benchSeed    int64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark add, delete and search on random data",
	Long: `Fills an index with random vectors, deletes a share of them, refills
the freed slots and runs a batch of exact searches.

Examples:
  vecflat bench --n 100000 --dim 128 --queries 100 --k 10
  vecflat bench --metric ip --churn 0.2`,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.IntVarP(&benchN, "n", "n", 10000, "number of vectors")
	f.IntVar(&benchQueries, "queries", 100, "number of queries")
	f.IntVarP(&benchK, "k", "k", 10, "neighbors per query")
	f.Float64Var(&benchChurn, "churn", 0.1, "share of vectors deleted and re-added")
	f.Int64Var(&benchSeed, "seed", 42, "random seed")
	f.Int("dim", 0, "vector dimension (overrides config)")
	f.String("metric", "", "metric (overrides config)")
}

// BenchReport summarizes one benchmark run.
type BenchReport struct {
	Vectors    int
	Deleted    int
	AddRate    float64 // vectors per second
	DeleteRate float64 // labels per second
	RefillRate float64 // vectors per second
	QPS        float64
	Distances  int64
	BLAS       bool
	FinalStats vecflat.Stats
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	idx, err := newIndex(cfg)
	if err != nil {
		return err
	}

	report, err := bench(cmd.Context(), idx, testutil.NewRNG(benchSeed))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "vectors:     %d x %d (%s, %s)\n", report.Vectors, cfg.Dimension, cfg.Metric, cfg.Encoder)
	fmt.Fprintf(out, "add:         %.0f vec/s\n", report.AddRate)
	fmt.Fprintf(out, "delete:      %d labels, %.0f labels/s\n", report.Deleted, report.DeleteRate)
	fmt.Fprintf(out, "refill:      %.0f vec/s\n", report.RefillRate)
	fmt.Fprintf(out, "search:      %.1f QPS (k=%d, gemm=%t)\n", report.QPS, benchK, report.BLAS)
	fmt.Fprintf(out, "distances:   %d\n", report.Distances)
	fmt.Fprintf(out, "slots:       %d (%d free), %d bytes\n",
		report.FinalStats.SlotCount, report.FinalStats.FreeCount, report.FinalStats.MemoryBytes)
	return nil
}

func bench(ctx context.Context, idx *vecflat.Index, rng *testutil.RNG) (BenchReport, error) {
	dim := idx.Dimension()
	report := BenchReport{Vectors: benchN}

	data := rng.UniformVectors(benchN, dim)
	start := time.Now()
	labels, err := idx.Add(data)
	if err != nil {
		return report, err
	}
	report.AddRate = rate(len(labels), time.Since(start))

	nDel := int(float64(len(labels)) * benchChurn)
	victims := make([]vecflat.Label, 0, nDel)
	for _, i := range rng.Perm(len(labels))[:nDel] {
		victims = append(victims, labels[i])
	}
	start = time.Now()
	if _, err := idx.MarkDeleted(victims...); err != nil {
		return report, err
	}
	report.Deleted = nDel
	report.DeleteRate = rate(nDel, time.Since(start))

	start = time.Now()
	if _, err := idx.Add(rng.UniformVectors(nDel, dim)); err != nil {
		return report, err
	}
	report.RefillRate = rate(nDel, time.Since(start))

	var stats vecflat.SearchStats
	queries := rng.UniformVectors(benchQueries, dim)
	start = time.Now()
	if _, err := idx.SearchContext(ctx, queries, benchK, vecflat.WithSearchStats(&stats)); err != nil {
		return report, err
	}
	report.QPS = rate(benchQueries, time.Since(start))
	report.Distances = stats.Distances
	report.BLAS = stats.BLAS
	report.FinalStats = idx.Stats()
	return report, idx.Validate()
}

func rate(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}
