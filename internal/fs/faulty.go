package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is returned by FaultyFS when a rule carries no error of its own.
var ErrInjected = errors.New("injected fault")

// Op selects the operations a Fault breaks.
type Op uint8

const (
	OpWrite Op = 1 << iota
	OpSync
	OpClose
	OpRename // matched against the source path
)

// Fault describes how files matching a rule misbehave.
type Fault struct {
	Ops Op
	// WriteBudget is the number of bytes a file accepts before OpWrite
	// fails. The write crossing the budget is short, like a full disk.
	WriteBudget int64
	Err         error
}

type rule struct {
	pattern string
	fault   Fault
}

// FaultyFS wraps a FileSystem and breaks files whose path contains a rule's
// pattern. Rules are tried in the order they were added.
type FaultyFS struct {
	FS FileSystem

	mu    sync.Mutex
	rules []rule
	hits  int
}

// NewFaultyFS wraps fsys, or Default if fsys is nil.
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{FS: fsys}
}

// AddRule breaks every file whose path contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	f.rules = append(f.rules, rule{pattern: pattern, fault: fault})
	f.mu.Unlock()
}

// Reset drops all rules and the hit count.
func (f *FaultyFS) Reset() {
	f.mu.Lock()
	f.rules, f.hits = nil, 0
	f.mu.Unlock()
}

// Hits returns how many operations failed by injection.
func (f *FaultyFS) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func (f *FaultyFS) lookup(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if strings.Contains(name, r.pattern) {
			return r.fault, true
		}
	}
	return Fault{}, false
}

func (f *FaultyFS) inject(fault Fault) error {
	f.mu.Lock()
	f.hits++
	f.mu.Unlock()
	if fault.Err != nil {
		return fault.Err
	}
	return ErrInjected
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if fault, ok := f.lookup(name); ok && fault.Ops != 0 {
		return &faultyFile{File: file, owner: f, fault: fault}, nil
	}
	return file, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault, ok := f.lookup(oldpath); ok && fault.Ops&OpRename != 0 {
		return f.inject(fault)
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error                     { return f.FS.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error)        { return f.FS.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.FS.MkdirAll(path, perm) }
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error)   { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	owner   *FaultyFS
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.Ops&OpWrite == 0 {
		return ff.File.Write(p)
	}
	room := max(ff.fault.WriteBudget-ff.written, 0)
	if int64(len(p)) <= room {
		n, err := ff.File.Write(p)
		ff.written += int64(n)
		return n, err
	}
	n, err := ff.File.Write(p[:room])
	ff.written += int64(n)
	if err != nil {
		return n, err
	}
	return n, ff.owner.inject(ff.fault)
}

func (ff *faultyFile) Sync() error {
	if ff.fault.Ops&OpSync != 0 {
		return ff.owner.inject(ff.fault)
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	err := ff.File.Close()
	if ff.fault.Ops&OpClose != 0 {
		return ff.owner.inject(ff.fault)
	}
	return err
}
