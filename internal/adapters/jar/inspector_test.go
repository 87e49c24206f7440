package jar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify_KnownDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.jar")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	info, err := NewSHA256Inspector().Identify(path)
	require.NoError(t, err)

	assert.Equal(t, "game.jar", info.Name)
	// sha256("hello world")
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", info.SHA256)
}

func TestIdentify_SameContentSameDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jar")
	b := filepath.Join(dir, "b.jar")
	require.NoError(t, os.WriteFile(a, []byte("identical bytes"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("identical bytes"), 0644))

	inspector := NewSHA256Inspector()
	infoA, err := inspector.Identify(a)
	require.NoError(t, err)
	infoB, err := inspector.Identify(b)
	require.NoError(t, err)

	assert.Equal(t, infoA.SHA256, infoB.SHA256, "digest depends on content only")
	assert.NotEqual(t, infoA.Name, infoB.Name)
}

func TestIdentify_MissingFile(t *testing.T) {
	_, err := NewSHA256Inspector().Identify(filepath.Join(t.TempDir(), "missing.jar"))
	assert.Error(t, err)
}
