// Package storage defines the vault file-system abstraction used for export
// snapshots and the import inbox.
package storage

import "time"

// FileInfo describes one file returned by List.
type FileInfo struct {
	Path      string // relative to the vault root
	Checksum  string
	Size      int64
	UpdatedAt time.Time
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns the files directly inside dir (relative to vault root)
	// whose name ends in ext. Subdirectories are not descended into.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to vault root).
	Move(oldPath, newPath string) error
	// Abs returns the absolute form of a vault-relative path.
	Abs(path string) (string, error)
}
