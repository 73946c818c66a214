package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tidy-go/internal/tidy"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	ignore []string
}

// NewOSFilesystemManager creates a new filesystem manager that operates on the
// real filesystem. ignore holds patterns excluded from every listing.
func NewOSFilesystemManager(ignore []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignore: ignore}
}

// Resolve makes rawPath absolute and stats it, following symlinks.
// Devices, pipes and sockets are rejected.
func (m *OSFilesystemManager) Resolve(rawPath string) (*tidy.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, fmt.Errorf("unsupported file type %v: %s", info.Mode().Type(), absPath)
	}

	return tidy.NewPath(absPath, info.IsDir()), nil
}

// ListFiles returns the regular files directly inside dir, sorted by name.
// Files matching the configured ignore patterns or the directory's
// .tidyignore are left out.
func (m *OSFilesystemManager) ListFiles(dir string) ([]tidy.FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	local, err := ParseIgnoreFile(filepath.Join(dir, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns := append(append(append([]string{}, defaultIgnorePatterns...), m.ignore...), local...)
	matcher := NewIgnoreMatcher(patterns)

	var files []tidy.FileEntry
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if matcher.Match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Removed between ReadDir and stat.
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		files = append(files, tidy.FileEntry{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}

// CopyFile copies src to dst with src's permissions, truncating dst if it exists.
func (m *OSFilesystemManager) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying content: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return nil
}

// Rename moves oldPath to newPath. Moves across devices fail.
func (m *OSFilesystemManager) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Remove deletes a single file.
func (m *OSFilesystemManager) Remove(path string) error {
	return os.Remove(path)
}

// MkdirAll creates path and any missing parents.
func (m *OSFilesystemManager) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Exists reports whether anything exists at path, without following symlinks.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Compile-time check that OSFilesystemManager implements tidy.FilesystemManager interface
var _ tidy.FilesystemManager = (*OSFilesystemManager)(nil)
