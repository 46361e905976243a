package integration

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// project is a throwaway builder checkout: <base>/project with prebuilts in <base>/out.
type project struct {
	root string
	out  string
}

func newProject(t *testing.T) *project {
	t.Helper()

	base := t.TempDir()
	p := &project{
		root: filepath.Join(base, "project"),
		out:  filepath.Join(base, "out"),
	}

	require.NoError(t, os.MkdirAll(p.root, 0o755))

	return p
}

// static writes a file below <root>/static.
func (p *project) static(t *testing.T, rel string, data []byte, perm os.FileMode) {
	t.Helper()

	writeFile(t, filepath.Join(p.root, "static", filepath.FromSlash(rel)), data, perm)
}

// prebuilt writes a file below <root>/../out.
func (p *project) prebuilt(t *testing.T, rel string, data []byte) {
	t.Helper()

	writeFile(t, filepath.Join(p.out, filepath.FromSlash(rel)), data, 0o644)
}

func (p *project) staging(rel string) string {
	return filepath.Join(p.root, "build", "module", filepath.FromSlash(rel))
}

func (p *project) archive() string {
	return filepath.Join(p.root, "build", "sony_camera_magisk_v1.0.zip")
}

func writeFile(t *testing.T, path string, data []byte, perm os.FileMode) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, perm))
	require.NoError(t, os.Chmod(path, perm))
}

// readArchive returns entry contents keyed by name.
func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		_ = zr.Close()
	}()

	entries := make(map[string][]byte, len(zr.File))

	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)

		var buf bytes.Buffer

		_, err = io.Copy(&buf, rc) //nolint:gosec // Test archives are tiny.
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		entries[f.Name] = buf.Bytes()
	}

	return entries
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
