package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/vecflat/blobstore"
)

const contentType = "application/octet-stream"

// ErrBucketNotFound is returned by New when the bucket is missing and
// WithCreateBucket was not given.
var ErrBucketNotFound = errors.New("minio: bucket not found")

var errAborted = errors.New("minio: upload aborted")

// Options configures a Store.
type Options struct {
	// Prefix is prepended to every key. A trailing slash is added if missing.
	Prefix string
	// PartSize is the multipart part size for streamed snapshots. Zero lets
	// the client choose.
	PartSize uint64
	// CreateBucket makes New create a missing bucket in Region.
	CreateBucket bool
	Region       string
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithPartSize sets the multipart part size.
func WithPartSize(size uint64) func(*Options) {
	return func(o *Options) { o.PartSize = size }
}

// WithCreateBucket makes New create the bucket in region if it is missing.
func WithCreateBucket(region string) func(*Options) {
	return func(o *Options) {
		o.CreateBucket = true
		o.Region = region
	}
}

// Store implements blobstore.BlobStore on a MinIO or other S3-compatible
// bucket.
type Store struct {
	client   *minio.Client
	bucket   string
	prefix   string
	partSize uint64
}

// New checks that bucket exists, creating it if asked to, and returns a
// Store for it.
func New(ctx context.Context, client *minio.Client, bucket string, optFns ...func(*Options)) (*Store, error) {
	s := NewStore(client, bucket, optFns...)

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	ok, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: check bucket %q: %w", bucket, err)
	}
	if ok {
		return s, nil
	}
	if !opts.CreateBucket {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
		// Another writer may have won the race.
		if code := minio.ToErrorResponse(err).Code; code != "BucketAlreadyOwnedByYou" {
			return nil, fmt.Errorf("minio: create bucket %q: %w", bucket, err)
		}
	}
	return s, nil
}

// NewStore returns a Store without contacting the server.
func NewStore(client *minio.Client, bucket string, optFns ...func(*Options)) *Store {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   normalizePrefix(opts.Prefix),
		partSize: opts.PartSize,
	}
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (s *Store) key(name string) string { return s.prefix + name }

func (s *Store) name(key string) string { return strings.TrimPrefix(key, s.prefix) }

func (s *Store) putOptions() minio.PutObjectOptions {
	return minio.PutObjectOptions{ContentType: contentType, PartSize: s.partSize}
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open stats the object and returns a Blob reading it by range.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return &object{store: s, key: key, size: info.Size}, nil
}

// Put uploads data in one request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), s.putOptions())
	return err
}

// Create streams a snapshot through a multipart upload. The object becomes
// visible when Close returns nil. Abort, or canceling ctx, drops the upload.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancelCause(ctx)
	pr, pw := io.Pipe()
	u := &upload{pw: pw, cancel: cancel, result: make(chan error, 1)}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, s.putOptions())
		_ = pr.CloseWithError(err)
		u.result <- err
	}()
	return u, nil
}

// Delete removes a blob. A missing blob is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted names under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if n := s.name(obj.Key); n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

type object struct {
	store *Store
	key   string
	size  int64
}

func (o *object) Size() int64  { return o.size }
func (o *object) Close() error { return nil }

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= o.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, min(off+length, o.size)-1); err != nil {
		return nil, err
	}
	return o.store.client.GetObject(ctx, o.store.bucket, o.key, opts)
}

// upload is not safe for concurrent use.
type upload struct {
	pw     *io.PipeWriter
	cancel context.CancelCauseFunc
	result chan error
	done   bool
}

func (u *upload) Write(p []byte) (int, error) {
	if u.done {
		return 0, os.ErrClosed
	}
	return u.pw.Write(p)
}

func (u *upload) Close() error {
	if u.done {
		return os.ErrClosed
	}
	u.done = true
	_ = u.pw.Close()
	err := <-u.result
	u.cancel(nil)
	return err
}

func (u *upload) Abort() error {
	if u.done {
		return nil
	}
	u.done = true
	u.cancel(errAborted)
	_ = u.pw.CloseWithError(errAborted)
	<-u.result
	return nil
}

var _ blobstore.BlobStore = (*Store)(nil)
