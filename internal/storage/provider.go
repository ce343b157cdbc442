// Package storage owns the generated site's output directory.
package storage

import "io"

// Provider is the interface for output tree operations. Paths are relative
// to the output root and use forward slashes.
type Provider interface {
	// Root returns the absolute output directory.
	Root() string
	// Reset removes the output directory and recreates it empty.
	Reset() error
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Copy streams src into path byte for byte.
	Copy(path string, src io.Reader) error
}
