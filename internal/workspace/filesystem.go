package workspace

import "os"

// FileSystem exposes the directory operations used to manage temporary working copies.
type FileSystem interface {
	MkdirTemp(parentDirectory string, pattern string) (string, error)
	RemoveAll(path string) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// MkdirTemp creates a new unique directory below parentDirectory, or below the system temporary directory when empty.
func (OSFileSystem) MkdirTemp(parentDirectory string, pattern string) (string, error) {
	return os.MkdirTemp(parentDirectory, pattern)
}

// RemoveAll removes path and everything below it.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
