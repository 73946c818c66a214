package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"tidy-go/internal/fs"
	"tidy-go/internal/tidy"
)

// WriteFile creates dir/name with content and sets its modification time.
func WriteFile(t *testing.T, dir, name, content string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("setting mtime of %s: %v", name, err)
	}
	return path
}

// ReadFile returns the content of dir/name, failing the test if it is missing.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}

// ListNames returns the sorted names of the regular files in dir.
func ListNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// FaultyFilesystemManager wraps the real filesystem and fails mutating
// operations on chosen file names.
type FaultyFilesystemManager struct {
	*fs.OSFilesystemManager
	failing map[string]error
}

// NewFaultyFilesystemManager creates a filesystem that behaves like the OS
// one until FailOn is called.
func NewFaultyFilesystemManager() *FaultyFilesystemManager {
	return &FaultyFilesystemManager{
		OSFilesystemManager: fs.NewOSFilesystemManager(nil),
		failing:             make(map[string]error),
	}
}

// FailOn makes CopyFile, Rename and Remove return err when their source
// has base name name.
func (f *FaultyFilesystemManager) FailOn(name string, err error) {
	f.failing[name] = err
}

func (f *FaultyFilesystemManager) fault(path string) error {
	if err, ok := f.failing[filepath.Base(path)]; ok {
		return fmt.Errorf("injected fault on %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (f *FaultyFilesystemManager) CopyFile(src, dst string) error {
	if err := f.fault(src); err != nil {
		return err
	}
	return f.OSFilesystemManager.CopyFile(src, dst)
}

func (f *FaultyFilesystemManager) Rename(oldPath, newPath string) error {
	if err := f.fault(oldPath); err != nil {
		return err
	}
	return f.OSFilesystemManager.Rename(oldPath, newPath)
}

func (f *FaultyFilesystemManager) Remove(path string) error {
	if err := f.fault(path); err != nil {
		return err
	}
	return f.OSFilesystemManager.Remove(path)
}

// Compile-time check
var _ tidy.FilesystemManager = (*FaultyFilesystemManager)(nil)
