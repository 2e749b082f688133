// Package dirlock provides advisory, non-blocking mutual exclusion over a
// build working directory, shared between independent invocations of the
// whole program.
//
// The lock is an OS-level exclusive claim on a fixed lock file inside the
// directory; the file's mere existence carries no meaning, so a crashed
// holder never leaves the directory stuck. Releasing a lock drops the claim
// but keeps the file, letting a later process lock the same path again.
package dirlock

import (
	"errors"
	"os"
	"path/filepath"
)

// LockFileName is the fixed name of the lock file inside a build directory.
const LockFileName = ".lock"

// ErrContended reports that another process currently holds the lock.
var ErrContended = errors.New("build directory is locked by another process")

// Lock is an exclusive advisory claim on one build directory.
type Lock struct {
	dir  string
	file *os.File
}

// TryLock attempts a non-blocking exclusive lock on the directory's lock
// file, creating the directory and the file as needed. It returns
// ErrContended without waiting when the lock is already held.
func TryLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{dir: dir, file: f}, nil
}

// Dir returns the locked directory.
func (l *Lock) Dir() string {
	return l.dir
}

// Release drops the exclusive claim. The lock file is left in place so the
// directory can be locked again by a later process.
func (l *Lock) Release() error {
	err := unlockFile(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Clean removes everything inside dir except the lock file, guaranteeing a
// clean build directory even if a prior run aborted mid-build.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == LockFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
