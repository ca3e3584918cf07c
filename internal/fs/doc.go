// Package fs abstracts the file system under blobstore.LocalStore.
//
//   - [LocalFS] forwards to the os package.
//   - [FaultyFS] wraps another FileSystem and injects write, sync, close and
//     rename failures for tests.
//   - [AtomicFile] is the write path of a blob: hidden temporary file, sync,
//     rename over the target.
//
// Tests swap the file system of a store to provoke IO errors:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{Ops: fs.OpWrite, WriteBudget: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
package fs
