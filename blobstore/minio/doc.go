// Package minio stores snapshots in a MinIO bucket or any other
// S3-compatible service reachable with minio-go.
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	store, err := miniostore.New(ctx, client, "vectors",
//	    miniostore.WithPrefix("snapshots"),
//	    miniostore.WithCreateBucket(""),
//	)
//	err = idx.SaveSnapshot(ctx, store, "products.vfs")
//
// SaveSnapshot streams through Create as a multipart upload, so a snapshot
// never has to fit in memory. A failed or aborted save leaves no object.
// LoadSnapshot reads sections with ranged GETs.
package minio
