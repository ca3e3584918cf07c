// Package scan runs exhaustive k-nearest-neighbor and range scans over the
// live slots of a slot store.
//
// Small query batches are scanned one query at a time with a distance
// computer, four slots per step. Large batches under L2 or inner product,
// with an encoder that can view codes as float32 in place, are scored block
// by block with a single GEMM per block pair.
//
// Work is split over queries when there are enough of them, otherwise over
// slot ranges, and runs on an errgroup bounded by the configured parallelism.
package scan
