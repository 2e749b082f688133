package dirlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTryLockCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")

	lock, err := TryLock(dir)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer lock.Release()

	if lock.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", lock.Dir(), dir)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
}

func TestTryLockContended(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")

	first, err := TryLock(dir)
	if err != nil {
		t.Fatalf("first TryLock: %v", err)
	}
	defer first.Release()

	// A second claim uses its own file descriptor, so the conflict is
	// visible even within one process.
	if _, err := TryLock(dir); !errors.Is(err, ErrContended) {
		t.Errorf("second TryLock error = %v, want ErrContended", err)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")

	lock, err := TryLock(dir)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// The lock file must survive release.
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Fatalf("lock file removed on release: %v", err)
	}

	again, err := TryLock(dir)
	if err != nil {
		t.Fatalf("TryLock after release: %v", err)
	}
	again.Release()
}

func TestClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	lock, err := TryLock(dir)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer lock.Release()

	if err := os.WriteFile(filepath.Join(dir, "CMakeCache.txt"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "CMakeFiles", "x"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Clean(dir); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != LockFileName {
		t.Errorf("after Clean, entries = %v, want only %s", entries, LockFileName)
	}
}
