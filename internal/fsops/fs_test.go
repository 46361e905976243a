package fsops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

// TestCopyTree_MergesDirectoriesAndOverwritesFiles checks the merge semantics of a directory copy.
func TestCopyTree_MergesDirectoriesAndOverwritesFiles(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")

	writeTestFile(t, filepath.Join(src, "bin", "tool"), "new", 0o644)
	writeTestFile(t, filepath.Join(src, "etc", "a.conf"), "a", 0o644)
	writeTestFile(t, filepath.Join(dst, "bin", "tool"), "old-and-longer", 0o644)
	writeTestFile(t, filepath.Join(dst, "bin", "keep"), "keep", 0o644)

	n, err := CopyTree(src, dst)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(dst, "bin", "tool"))
	require.NoError(t, err)
	require.Equal(t, "new", string(got))

	got, err = os.ReadFile(filepath.Join(dst, "bin", "keep"))
	require.NoError(t, err)
	require.Equal(t, "keep", string(got))

	require.FileExists(t, filepath.Join(dst, "etc", "a.conf"))
}

// TestCopyTree_ReplacesTypeMismatch verifies that a file replaces a directory at the same path.
func TestCopyTree_ReplacesTypeMismatch(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")

	writeTestFile(t, filepath.Join(src, "lib"), "file now", 0o644)
	writeTestFile(t, filepath.Join(dst, "lib", "old.so"), "x", 0o644)

	_, err := CopyTree(src, dst)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dst, "lib"))
	require.NoError(t, err)
	require.Equal(t, "file now", string(got))
}

// TestCopyTree_PreservesMode ensures file modes follow the source, including on overwrite.
func TestCopyTree_PreservesMode(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}

	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")

	writeTestFile(t, filepath.Join(src, "run"), "#!/bin/sh", 0o755)
	writeTestFile(t, filepath.Join(dst, "run"), "old", 0o600)

	_, err := CopyTree(src, dst)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "run"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

// TestCopyTree_MissingSource reports the missing path.
func TestCopyTree_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := CopyTree(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Contains(t, err.Error(), "nope")
}

// TestWriteFile_ForcesMode checks parent creation and mode enforcement on existing files.
func TestWriteFile_ForcesMode(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}

	path := filepath.Join(t.TempDir(), "a", "b", "script.sh")
	writeTestFile(t, path, "old", 0o600)

	require.NoError(t, WriteFile(path, []byte("new"), 0o755))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

// TestAddExecute verifies that execute bits are added without dropping existing ones.
func TestAddExecute(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}

	path := filepath.Join(t.TempDir(), "bin")
	writeTestFile(t, path, "elf", 0o640)

	require.NoError(t, AddExecute(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o751), info.Mode().Perm())
}

// TestExistsAndIsDir covers present, absent and file-vs-directory cases.
func TestExistsAndIsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	writeTestFile(t, file, "", 0o644)

	ok, err := Exists(file)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = IsDir(file)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = IsDir(dir)
	require.NoError(t, err)
	require.True(t, ok)
}
