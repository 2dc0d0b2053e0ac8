// Package storage reads fixture documents and the content files they
// reference from a directory tree.
package storage

// Provider is a read-only view of a file tree. Paths are relative to its root.
type Provider interface {
	// List returns the files under dir whose names end in one of the
	// suffixes, sorted. No suffix matches every file.
	List(dir string, suffixes ...string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
}
