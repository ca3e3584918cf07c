// Package blobstore is where snapshots live. Index.SaveSnapshot writes one
// blob through Create and LoadSnapshot reads it back with ranged reads, so a
// BlobStore only has to offer named, immutable byte objects.
//
// A blob written with Create becomes visible under its name only when Close
// succeeds. After Abort, a failed Close or a canceled context, readers still
// see the previous blob of that name or nothing at all.
//
// MemoryStore backs tests and LocalStore writes through a hidden temporary
// file that is renamed into place. Object storage lives in the minio and s3
// subpackages.
package blobstore
