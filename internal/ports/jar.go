package ports

import "colab/internal/domain"

// JarInspector computes stable identity for jar artifacts
type JarInspector interface {
	// Identify returns the base name and content hash of the file at
	// path. Byte-identical files always produce identical results.
	Identify(path string) (domain.JarInfo, error)
}
