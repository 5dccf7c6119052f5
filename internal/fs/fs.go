// Package fs provides a file system abstraction for the codemod engine.
// The virtual file context reads the project through it and flush writes
// through it, so migrations can be unit tested without touching disk.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FS defines the interface for file system operations.
// Implementations can provide real file system access or in-memory
// mocking for testing.
type FS interface {
	// ReadFile reads the entire file at path and returns its contents.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to the file at path with the given permissions.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates all directories in the path.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info for the given path.
	Stat(path string) (os.FileInfo, error)

	// ReadDir returns the entries of the directory at path sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// Remove removes the file or empty directory at path.
	Remove(path string) error

	// Rename renames oldpath to newpath, replacing newpath if it exists.
	Rename(oldpath, newpath string) error
}

// RealFS implements FS using the actual operating system.
// This is the production implementation.
type RealFS struct{}

// ReadFile reads the entire file at path.
func (r *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to the file at path with permissions.
func (r *RealFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// MkdirAll creates all directories in the path.
func (r *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Stat returns file info for the given path.
func (r *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir returns the sorted entries of the directory at path.
func (r *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// Remove removes the file or directory at path.
func (r *RealFS) Remove(path string) error {
	return os.Remove(path)
}

// Rename renames oldpath to newpath.
func (r *RealFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Default is the default RealFS instance for convenience.
var Default = &RealFS{}

// TempName returns a hidden, collision-free sibling name for path.
// It is used for atomic writes and for staging renames.
func TempName(path, purpose string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s-%s", base, purpose, uuid.NewString()[:8]))
}

// WriteFileAtomic writes data next to path and renames it into place, so
// readers never observe a partially written file. Parent directories are
// created and the mode of an existing file is kept.
func WriteFileAtomic(fsys FS, path string, data []byte) error {
	perm := os.FileMode(0644)
	if info, err := fsys.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("writing %s: is a directory", path)
		}
		perm = info.Mode().Perm()
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", path, err)
	}

	tmp := TempName(path, "tmp")
	if err := fsys.WriteFile(tmp, data, perm); err != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}

	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.Remove(tmp)
		return fmt.Errorf("moving temp file into %s: %w", path, err)
	}

	return nil
}
