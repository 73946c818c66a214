package tidy

import "time"

// FileEntry is a regular file found in a directory listing.
type FileEntry struct {
	Name    string
	ModTime time.Time
}

// Date returns the local calendar date the file was last modified.
func (e FileEntry) Date() Date {
	return DateOf(e.ModTime)
}

// Path is an absolute path that was checked to exist when it was resolved.
type Path struct {
	abs   string
	isDir bool
}

// NewPath is used by FilesystemManager implementations.
func NewPath(abs string, isDir bool) *Path {
	return &Path{abs: abs, isDir: isDir}
}

func (p *Path) String() string { return p.abs }

// IsDir reports whether the path was a directory when resolved.
func (p *Path) IsDir() bool { return p.isDir }

// FilesystemManager provides the filesystem primitives the organizer needs.
// It abstracts file access so tests can inject failures.
type FilesystemManager interface {
	// Resolve makes rawPath absolute and checks that it names a directory
	// or a regular file.
	Resolve(rawPath string) (*Path, error)

	// ListFiles returns the regular files directly inside dir, in name order.
	// Subdirectories and special files are skipped and never stat'ed.
	ListFiles(dir string) ([]FileEntry, error)

	// CopyFile copies src to dst, replacing dst if it exists.
	CopyFile(src, dst string) error

	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error

	// Remove deletes a single file.
	Remove(path string) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Exists reports whether anything exists at path.
	Exists(path string) (bool, error)
}
