// Package atomicfile provides crash-safe, cross-process-safe access to a
// single file.
//
// Reads take a shared advisory lock on the target path, so they may run
// concurrently with each other but never overlap a write. Writes take an
// exclusive lock, write the new contents to a temporary file in the same
// directory, flush it to disk, and rename it over the target. A reader
// never observes a half-written file, and a crash mid-write leaves the
// previous contents intact (at worst an orphaned temp file remains).
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// File wraps a single path with lock-protected read and write operations.
// The zero value is not usable; construct with New.
type File struct {
	path string
}

// New returns a File for the given path. The file itself is created lazily
// on first Read or Write.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the target path.
func (f *File) Path() string { return f.path }

// Read acquires a shared lock on the path, creating an empty file if none
// exists, and returns the full contents.
func (f *File) Read() ([]byte, error) {
	lock := flock.New(f.path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking %s for read: %w", f.path, err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return data, nil
}

// Write acquires an exclusive lock on the path, blocking until every other
// reader and writer has released it, then replaces the contents atomically
// via a temp file and rename. Any failure before the rename leaves the
// original file untouched; the temp file is removed on failure.
func (f *File) Write(data []byte) error {
	lock := flock.New(f.path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking %s for write: %w", f.path, err)
	}
	defer lock.Unlock()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	// CreateTemp opens files 0600; config files are world-readable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

func writeAndSync(tmp *os.File, data []byte) error {
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	return tmp.Sync()
}
