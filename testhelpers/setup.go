package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"
)

// LeakCheck snapshots the running goroutines and returns a check that fails
// the test if any goroutine started since is still alive:
//
//	defer testhelpers.LeakCheck(t)()
func LeakCheck(t *testing.T) func() {
	t.Helper()
	ignore := goleak.IgnoreCurrent()
	return func() {
		t.Helper()
		goleak.VerifyNone(t, ignore)
	}
}

// CopyFile copies src to dir/name, creating parent directories, and returns
// the destination path
func CopyFile(t *testing.T, src, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read %s: %v", src, err)
	}
	return WriteFile(t, dir, name, data)
}

// WriteFile writes data to dir/name, creating parent directories
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
