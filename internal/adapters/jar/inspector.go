package jar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"colab/internal/domain"
	"colab/internal/ports"
)

// SHA256Inspector implements ports.JarInspector with a streaming
// content hash, so collaborators can prove which exact binary a
// historical session ran against.
type SHA256Inspector struct{}

// Verify interface compliance at compile time
var _ ports.JarInspector = (*SHA256Inspector)(nil)

// NewSHA256Inspector creates a new SHA256Inspector
func NewSHA256Inspector() *SHA256Inspector {
	return &SHA256Inspector{}
}

// Identify implements JarInspector.Identify
func (i *SHA256Inspector) Identify(path string) (domain.JarInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.JarInfo{}, fmt.Errorf("failed to open jar file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return domain.JarInfo{}, fmt.Errorf("failed to hash jar file: %w", err)
	}

	return domain.JarInfo{
		Name:   filepath.Base(path),
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
