// Package storage defines the Canonical Store file-system abstraction.
package storage

// Provider is the interface for canonical note file operations.
// All paths are relative to the store root.
type Provider interface {
	// List returns the path of every .md file under dir, sorted.
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Exists reports whether a file is present at path.
	Exists(path string) bool
	// EnsureDir creates dir (and parents) if missing.
	EnsureDir(dir string) error
	// Root returns the absolute store root.
	Root() string
}
