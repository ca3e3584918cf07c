package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"
)

// File is an open file.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	Sync() error
	Stat() (os.FileInfo, error)
	Name() string
}

// FileSystem is the subset of the os package the local blob store needs.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// LocalFS implements FileSystem with the os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error                     { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (LocalFS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (LocalFS) ReadDir(name string) ([]os.DirEntry, error)   { return os.ReadDir(name) }

// Default is the local file system.
var Default FileSystem = LocalFS{}

// TempPrefix starts the name of every unfinished atomic write.
const TempPrefix = "."

var tmpSeq atomic.Uint64

// AtomicFile writes to a hidden temporary file next to its target. Close
// syncs it and renames it over the target; Abort discards it. The target is
// never observed half written.
type AtomicFile struct {
	fsys  FileSystem
	f     File
	tmp   string
	final string
	done  bool
}

// CreateAtomic starts an atomic write of name, creating its directory.
func CreateAtomic(fsys FileSystem, name string) (*AtomicFile, error) {
	dir := filepath.Dir(name)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	suffix := strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(tmpSeq.Add(1), 36)
	tmp := filepath.Join(dir, TempPrefix+filepath.Base(name)+".tmp-"+suffix)
	f, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{fsys: fsys, f: f, tmp: tmp, final: name}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, os.ErrClosed
	}
	return a.f.Write(p)
}

// Close commits the write. On failure the temporary file is removed and
// the target is left as it was.
func (a *AtomicFile) Close() error {
	if a.done {
		return os.ErrClosed
	}
	a.done = true
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		return errors.Join(err, a.fsys.Remove(a.tmp))
	}
	if err := a.f.Close(); err != nil {
		return errors.Join(err, a.fsys.Remove(a.tmp))
	}
	if err := a.fsys.Rename(a.tmp, a.final); err != nil {
		return errors.Join(err, a.fsys.Remove(a.tmp))
	}
	return nil
}

// Abort discards the write. It is a no-op after Close.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.f.Close()
	return a.fsys.Remove(a.tmp)
}
