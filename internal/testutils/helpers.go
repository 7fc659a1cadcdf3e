package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// WriteFiles writes each name/content pair under dir and returns dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "write %s", name)
	}
	return dir
}

// SetupCatalogRepo creates a temporary catalog directory holding files and opens it
// as an unversioned Loam repository.
// It fails the test immediately on error.
func SetupCatalogRepo(t *testing.T, files map[string]string) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	require.NoError(t, err, "Failed to init loam repo")

	return WriteFiles(t, absPath, files), repo
}
