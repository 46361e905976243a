// Package fsops implements the filesystem primitives of a build: merging
// directory copies, mode-enforcing writes and existence checks.
//
// Errors carry the failing path so the CLI can report exactly where a build stopped.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirPerm is the mode of directories created by this package.
const DirPerm os.FileMode = 0o755

// Exists reports whether path exists. Errors other than "not exist" are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)

	switch {
	case err == nil:
		return info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// CopyTree copies src into dst. Directories are merged with whatever dst
// already holds; files are replaced byte for byte and keep their source mode.
// Symlinks are followed. It returns the number of files copied.
func CopyTree(src, dst string) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source %s: %w", src, err)
	}

	if err = clearTypeMismatch(dst, srcInfo.IsDir()); err != nil {
		return 0, err
	}

	if !srcInfo.IsDir() {
		return 1, copyFile(src, dst, srcInfo.Mode().Perm())
	}

	return copyDir(src, dst, srcInfo.Mode().Perm())
}

// clearTypeMismatch removes dst when it exists with the other file type,
// so a file never has to be written over a directory or vice versa.
func clearTypeMismatch(dst string, wantDir bool) error {
	dstInfo, err := os.Lstat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat destination %s: %w", dst, err)
	}

	if dstInfo.IsDir() == wantDir && dstInfo.Mode()&fs.ModeSymlink == 0 {
		return nil
	}

	if err = os.RemoveAll(dst); err != nil {
		return fmt.Errorf("remove %s: %w", dst, err)
	}

	return nil
}

func copyDir(src, dst string, perm os.FileMode) (int, error) {
	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, fmt.Errorf("read directory %s: %w", src, err)
	}

	copied := 0

	for _, entry := range entries {
		n, err := CopyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()))
		copied += n

		if err != nil {
			return copied, err
		}
	}

	return copied, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	defer func() {
		_ = srcFile.Close()
	}()

	if err = os.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(dst), err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()

		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	if err = dstFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	// OpenFile only applies perm to new files.
	if err = os.Chmod(dst, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}

	return nil
}

// WriteFile writes data to path, creating parent directories, and forces
// the file mode to perm even when the file already existed.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}

	if err := clearTypeMismatch(path, false); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}

// AddExecute sets the execute bits for owner, group and others on path.
func AddExecute(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err = os.Chmod(path, info.Mode().Perm()|0o111); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}
