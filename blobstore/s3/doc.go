// Package s3 stores snapshots in Amazon S3.
//
//	store, err := s3.New(ctx, "vectors", s3.WithPrefix("snapshots/"), s3.WithRegion("eu-west-1"))
//	err = idx.SaveSnapshot(ctx, store, "products.vfs")
//
// Create streams through the transfer manager's multipart uploader; an
// aborted or failed upload is cleaned up and leaves no object behind. Client
// is narrowed to the calls Store makes so tests can substitute a fake.
package s3
