// Package vecflat provides a mutable, exact (brute-force) vector index.
//
// Every search compares the query against every live vector, so results are
// exact. Vectors can be deleted at any time; the freed storage is reused by
// later inserts without compaction and without renumbering the remaining
// vectors.
//
// # Quick Start
//
//	idx, _ := vecflat.New(128, vecflat.WithMetric(vecflat.MetricL2))
//	labels, _ := idx.Add(vectors)
//	results, _ := idx.Search(queries, 10)
//	for _, n := range results[0] {
//	    fmt.Println(n.Label, n.Distance)
//	}
//
// # Labels and Slots
//
// Add returns one label per vector. Labels are assigned from 0 upwards and
// are never reused. Internally each vector occupies a slot in a contiguous
// arena. MarkDeleted frees the slot of a label; the next Add fills freed
// slots, smallest first, before growing the arena:
//
//	idx.Add([][]float32{{0, 0}, {1, 0}, {0, 1}}) // labels 0, 1, 2
//	idx.MarkDeleted(1)                           // slot 1 is free
//	idx.Add([][]float32{{5, 5}})                 // label 3, stored in slot 1
//
// # Metrics
//
// L2 (squared), InnerProduct, L1, Linf, Lp, Canberra, BrayCurtis,
// JensenShannon and Jaccard are supported. InnerProduct and Jaccard are
// similarities: results are ordered by decreasing value and RangeSearch
// keeps values above the radius. Cosine similarity is inner product on
// normalized vectors.
//
// Large query batches on L2 and InnerProduct are scored with matrix
// multiplication (see WithBLASThreshold).
//
// # Filtering
//
//	sel := vecflat.NewBatchSelector(4, 8, 15)
//	results, _ := idx.Search(queries, 10, vecflat.WithSelector(sel))
//
// # Snapshots
//
// Save and Load serialize an index to a stream. SaveSnapshot and
// LoadSnapshot do the same against a blobstore.BlobStore (local disk, S3 or
// MinIO):
//
//	store := blobstore.NewLocalStore("./snapshots")
//	_ = idx.SaveSnapshot(ctx, store, "index.vfs")
//	restored, _ := vecflat.LoadSnapshot(ctx, store, "index.vfs")
//
// # Concurrency
//
// An Index is safe for concurrent use. Add, MarkDeleted and Reset are
// serialized; searches run concurrently with each other.
package vecflat
