package archiver

import (
	"bytes"
	"context"
	"crypto/sha512"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func put(t *testing.T, root, rel, content string, perm os.FileMode) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		_ = r.Close()
	}()

	out := make(map[string]string, len(r.File))

	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		out[f.Name] = string(data)
	}

	return out
}

// TestArchive_Contents checks relative entry names, file-only entries and the result metadata.
func TestArchive_Contents(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "module")
	put(t, root, "module.prop", "id=x\n", 0o644)
	put(t, root, "system/bin/placeholder", "bin", 0o755)
	put(t, root, "system/priv-app/App.apk", "apk", 0o644)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "system", "empty"), 0o755))

	target := filepath.Join(t.TempDir(), "out", "mod_v1.zip")

	res, err := Archive(context.Background(), root, target)
	require.NoError(t, err)
	require.Equal(t, target, res.Path)

	got := readArchive(t, target)
	require.Equal(t, map[string]string{
		"module.prop":             "id=x\n",
		"system/bin/placeholder":  "bin",
		"system/priv-app/App.apk": "apk",
	}, got)

	names := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}

	require.Equal(t, []string{"module.prop", "system/bin/placeholder", "system/priv-app/App.apk"}, names)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	sum := sha512.Sum512(data)
	require.Equal(t, sum[:], res.Checksum)
	require.Equal(t, int64(len(data)), res.Size)

	apk := sha512.Sum512([]byte("apk"))
	require.Equal(t, apk[:], res.Entries[2].Checksum)
	require.Equal(t, int64(3), res.Entries[2].Size)
}

// TestArchive_Deterministic verifies that identical trees give byte-identical archives.
func TestArchive_Deterministic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	put(t, root, "service.sh", "#!/system/bin/sh\n", 0o755)
	put(t, root, "system/lib64/libcam.so", "elf", 0o644)

	out := t.TempDir()
	first := filepath.Join(out, "a.zip")
	second := filepath.Join(out, "b.zip")

	_, err := Archive(context.Background(), root, first)
	require.NoError(t, err)

	// Touch the tree to make sure modification times do not leak into the archive.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "service.sh"), later, later))

	_, err = Archive(context.Background(), root, second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)

	b, err := os.ReadFile(second)
	require.NoError(t, err)
	require.True(t, bytes.Equal(a, b))
}

// TestArchive_PreservesModes keeps the execute bit of scripts inside the archive.
func TestArchive_PreservesModes(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}

	root := t.TempDir()
	put(t, root, "service.sh", "#!/system/bin/sh\n", 0o755)
	put(t, root, "module.prop", "id=x\n", 0o644)

	target := filepath.Join(t.TempDir(), "m.zip")
	_, err := Archive(context.Background(), root, target)
	require.NoError(t, err)

	r, err := zip.OpenReader(target)
	require.NoError(t, err)

	defer func() {
		_ = r.Close()
	}()

	modes := map[string]os.FileMode{}
	for _, f := range r.File {
		modes[f.Name] = f.Mode().Perm()
	}

	require.Equal(t, os.FileMode(0o755), modes["service.sh"])
	require.Equal(t, os.FileMode(0o644), modes["module.prop"])
}

// TestArchive_Overwrite replaces an existing archive at the target path.
func TestArchive_Overwrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	put(t, root, "module.prop", "id=new\n", 0o644)

	target := filepath.Join(t.TempDir(), "m.zip")
	require.NoError(t, os.WriteFile(target, []byte("stale archive"), 0o644))

	_, err := Archive(context.Background(), root, target)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"module.prop": "id=new\n"}, readArchive(t, target))
}

// TestArchive_FailureLeavesNoArtifact ensures a broken entry aborts without touching the target.
func TestArchive_FailureLeavesNoArtifact(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}

	root := t.TempDir()
	put(t, root, "module.prop", "id=x\n", 0o644)
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "zz-dangling")))

	out := t.TempDir()
	target := filepath.Join(out, "m.zip")

	_, err := Archive(context.Background(), root, target)
	require.Error(t, err)
	require.Contains(t, err.Error(), "zz-dangling")
	require.NoFileExists(t, target)

	leftovers, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

// TestArchive_Canceled stops on a canceled context.
func TestArchive_Canceled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	put(t, root, "module.prop", "id=x\n", 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(t.TempDir(), "m.zip")
	_, err := Archive(ctx, root, target)
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, target)
}

// TestEnsureTarget_LinksFinishedArchive leaves complete archive bytes at the target before the swap.
func TestEnsureTarget_LinksFinishedArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpPath := filepath.Join(dir, ".m.zip-1.tmp")
	target := filepath.Join(dir, "m.zip")
	require.NoError(t, os.WriteFile(tmpPath, []byte("finished archive"), ArchiveFileMode))

	created, err := ensureTarget(tmpPath, target)
	require.NoError(t, err)
	require.True(t, created)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("finished archive"), data)
}

// TestEnsureTarget_KeepsExisting does not touch an archive that is already in place.
func TestEnsureTarget_KeepsExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpPath := filepath.Join(dir, ".m.zip-1.tmp")
	target := filepath.Join(dir, "m.zip")
	require.NoError(t, os.WriteFile(tmpPath, []byte("new"), ArchiveFileMode))
	require.NoError(t, os.WriteFile(target, []byte("old"), ArchiveFileMode))

	created, err := ensureTarget(tmpPath, target)
	require.NoError(t, err)
	require.False(t, created)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("old"), data)
}

// TestArchive_FinalMode installs the archive with the archive file mode and no temporary leftovers.
func TestArchive_FinalMode(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	root := t.TempDir()
	put(t, root, "module.prop", "id=x\n", 0o644)

	out := t.TempDir()
	target := filepath.Join(out, "m.zip")

	res, err := Archive(context.Background(), root, target)
	require.NoError(t, err)

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, ArchiveFileMode, info.Mode().Perm())
	require.Equal(t, info.Size(), res.Size)

	leftovers, err := filepath.Glob(filepath.Join(out, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}
