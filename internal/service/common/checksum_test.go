//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"crypto/sha512"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileChecksum compares the file digest with a direct SHA-512 of the same bytes.
func TestFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte("module payload"), 0o644))

	got, err := FileChecksum(path)
	require.NoError(t, err)

	want := sha512.Sum512([]byte("module payload"))
	require.Equal(t, want[:], got)

	fromReader, err := ReaderChecksum(strings.NewReader("module payload"))
	require.NoError(t, err)
	require.Equal(t, got, fromReader)
	require.Equal(t, EncodeChecksum(want[:]), EncodeChecksum(got))
}

// TestFileChecksum_Missing returns an error naming the path.
func TestFileChecksum_Missing(t *testing.T) {
	t.Parallel()

	_, err := FileChecksum(filepath.Join(t.TempDir(), "absent"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
