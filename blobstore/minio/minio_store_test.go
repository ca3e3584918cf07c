package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecflat/blobstore"
)

func offlineClient(t *testing.T) *minio.Client {
	t.Helper()
	client, err := minio.New("127.0.0.1:1", &minio.Options{
		Creds: credentials.NewStaticV4("key", "secret", ""),
	})
	require.NoError(t, err)
	return client
}

func TestNormalizePrefix(t *testing.T) {
	for in, want := range map[string]string{
		"":           "",
		"/":          "",
		"snapshots":  "snapshots/",
		"snapshots/": "snapshots/",
		"/a/b/":      "a/b/",
	} {
		assert.Equal(t, want, normalizePrefix(in), "prefix %q", in)
	}
}

func TestStore_KeyMapping(t *testing.T) {
	s := NewStore(offlineClient(t), "bucket", WithPrefix("snapshots"))
	assert.Equal(t, "snapshots/idx.vfs", s.key("idx.vfs"))
	assert.Equal(t, "idx.vfs", s.name("snapshots/idx.vfs"))

	bare := NewStore(offlineClient(t), "bucket")
	assert.Equal(t, "idx.vfs", bare.key("idx.vfs"))
}

func TestStore_PartSize(t *testing.T) {
	s := NewStore(offlineClient(t), "bucket", WithPartSize(16<<20))
	assert.Equal(t, uint64(16<<20), s.putOptions().PartSize)
	assert.Equal(t, contentType, s.putOptions().ContentType)
}

func TestStore_CreateCanceled(t *testing.T) {
	s := NewStore(offlineClient(t), "bucket")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, "idx.vfs")
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_AbortThenWrite(t *testing.T) {
	s := NewStore(offlineClient(t), "bucket")
	w, err := s.Create(context.Background(), "idx.vfs")
	require.NoError(t, err)

	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())

	_, err = w.Write([]byte("x"))
	require.ErrorIs(t, err, os.ErrClosed)
	require.ErrorIs(t, w.Close(), os.ErrClosed)
}

// TestStore_Server runs against MINIO_ENDPOINT and is skipped without one.
func TestStore_Server(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	bucket := "vecflat-test"
	prefix := fmt.Sprintf("run-%d", time.Now().UnixNano())
	store, err := New(ctx, client, bucket, WithPrefix(prefix), WithCreateBucket(""))
	require.NoError(t, err)

	t.Run("put and range read", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "a.vfs", []byte("header|body")))

		blob, err := store.Open(ctx, "a.vfs")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, int64(11), blob.Size())

		rc, err := blob.ReadRange(ctx, 7, 100)
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "body", string(got))
	})

	t.Run("streamed upload", func(t *testing.T) {
		w, err := store.Create(ctx, "b.vfs")
		require.NoError(t, err)
		_, err = w.Write([]byte("streamed"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		got, err := blobstore.ReadAll(ctx, store, "b.vfs")
		require.NoError(t, err)
		assert.Equal(t, "streamed", string(got))
	})

	t.Run("aborted upload is not published", func(t *testing.T) {
		w, err := store.Create(ctx, "c.vfs")
		require.NoError(t, err)
		_, err = w.Write([]byte("discard"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		_, err = store.Open(ctx, "c.vfs")
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.vfs", "b.vfs"}, names)

		for _, n := range names {
			require.NoError(t, store.Delete(ctx, n))
		}
		require.NoError(t, store.Delete(ctx, "a.vfs"))

		names, err = store.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := New(ctx, client, "vecflat-missing-"+prefix)
		require.ErrorIs(t, err, ErrBucketNotFound)
	})
}
