// Package testutil provides helpers for tests and benchmarks of vecflat.
//
// It generates deterministic random datasets and computes exact reference
// results to compare index output against.
//
//	rng := testutil.NewRNG(42)
//	data := rng.UniformVectors(1000, 64)
//	want := testutil.BruteForce(data, data[0], 10, testutil.SquaredL2, false, nil)
package testutil
