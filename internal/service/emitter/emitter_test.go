package emitter

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/modbuilder/internal/config"
	"github.com/oshokin/modbuilder/internal/templates"
)

func defaultData() templates.Data {
	cfg := config.Default()

	return templates.NewData(cfg.Package(), cfg.ServiceSpec())
}

// TestEmit_WritesAllFiles verifies that every generated file lands at its path with its mode.
func TestEmit_WritesAllFiles(t *testing.T) {
	t.Parallel()

	staging := filepath.Join(t.TempDir(), "module")
	e := New(staging, defaultData())

	written, err := e.Emit(context.Background())
	require.NoError(t, err)
	require.Len(t, written, len(templates.Files()))

	for _, f := range templates.Files() {
		info, err := os.Stat(filepath.Join(staging, filepath.FromSlash(f.Path)))
		require.NoError(t, err, f.Path)

		if runtime.GOOS != "windows" {
			require.Equal(t, f.Mode, info.Mode().Perm(), f.Path)
		}
	}

	prop, err := os.ReadFile(filepath.Join(staging, "module.prop"))
	require.NoError(t, err)
	require.Contains(t, string(prop), "id=sony_camera\n")
}

// TestEmit_Idempotent ensures a second run overwrites the same bytes.
func TestEmit_Idempotent(t *testing.T) {
	t.Parallel()

	staging := t.TempDir()
	e := New(staging, defaultData())

	_, err := e.Emit(context.Background())
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(staging, "service.sh"))
	require.NoError(t, err)

	_, err = e.Emit(context.Background())
	require.NoError(t, err)

	second, err := os.ReadFile(filepath.Join(staging, "service.sh"))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

// TestEmit_FailsOnBlockedPath checks that a write failure aborts with the failing path.
func TestEmit_FailsOnBlockedPath(t *testing.T) {
	t.Parallel()

	staging := t.TempDir()
	// A regular file where META-INF must be a directory.
	require.NoError(t, os.WriteFile(filepath.Join(staging, "META-INF"), []byte("x"), 0o644))

	written, err := New(staging, defaultData()).Emit(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "META-INF")
	require.Equal(t, []string{"module.prop"}, written)
}

// TestEmit_CanceledContext stops before writing anything.
func TestEmit_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	staging := t.TempDir()

	written, err := New(staging, defaultData()).Emit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, written)
	require.NoFileExists(t, filepath.Join(staging, "module.prop"))
}
