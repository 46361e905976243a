package archiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/klauspost/compress/zip"

	"github.com/oshokin/modbuilder/internal/logger"
	"github.com/oshokin/modbuilder/internal/service/common"
)

// ArchiveFileMode is the mode of the final archive.
const ArchiveFileMode os.FileMode = 0o644

var (
	// entryTime is stamped on every entry; the zip format cannot go earlier.
	//nolint:gochecknoglobals // Constant in spirit; time.Time cannot be const.
	entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

	errUnsupportedEntry = errors.New("unsupported file type in staging tree")
)

// Entry describes one file stored in the archive.
type Entry struct {
	// Name is the slash-separated path inside the archive.
	Name string
	// Size is the uncompressed size in bytes.
	Size int64
	// Checksum is the SHA-512 of the uncompressed content.
	Checksum []byte
}

// Result describes a written archive.
type Result struct {
	// Path is the final archive location.
	Path string
	// Size is the archive size in bytes.
	Size int64
	// Checksum is the SHA-512 of the archive file.
	Checksum []byte
	// Entries lists archive entries in write order.
	Entries []Entry
}

// Archive zips every regular file under root into target.
func Archive(ctx context.Context, root, target string) (*Result, error) {
	destDir := filepath.Dir(target)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", destDir, err)
	}

	tmp, err := os.CreateTemp(destDir, "."+filepath.Base(target)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temporary archive in %s: %w", destDir, err)
	}

	tmpPath := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	counter := &countingWriter{}

	entries, err := writeZip(ctx, io.MultiWriter(tmp, counter), root)
	if err != nil {
		return nil, err
	}

	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temporary archive %s: %w", tmpPath, err)
	}

	if err = os.Chmod(tmpPath, ArchiveFileMode); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}

	checksum, err := common.FileChecksum(tmpPath)
	if err != nil {
		return nil, err
	}

	if err = install(tmpPath, target, checksum); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Archive written", "path", target, "entries", len(entries), "bytes", counter.n)

	return &Result{
		Path:     target,
		Size:     counter.n,
		Checksum: checksum,
		Entries:  entries,
	}, nil
}

// writeZip streams the staging tree into w.
func writeZip(ctx context.Context, w io.Writer, root string) ([]Entry, error) {
	zw := zip.NewWriter(w)

	var entries []Entry

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if err = ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}

		entry, err := addFile(zw, path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		entries = append(entries, entry)

		return nil
	})
	if walkErr != nil {
		_ = zw.Close()

		return nil, walkErr
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	return entries, nil
}

// addFile stores one file. Symlinks are followed; anything but a regular file is rejected.
func addFile(zw *zip.Writer, path, name string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%s (%s): %w", path, info.Mode().Type(), errUnsupportedEntry)
	}

	//nolint:exhaustruct // Remaining header fields are derived by the zip writer.
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryTime,
	}
	header.SetMode(info.Mode().Perm())

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return Entry{}, fmt.Errorf("add %s to archive: %w", name, err)
	}

	src, err := os.Open(path)
	if err != nil {
		return Entry{}, fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = src.Close()
	}()

	counter := &countingWriter{}

	checksum, err := common.ReaderChecksum(io.TeeReader(src, io.MultiWriter(dst, counter)))
	if err != nil {
		return Entry{}, fmt.Errorf("compress %s: %w", path, err)
	}

	return Entry{
		Name:     name,
		Size:     counter.n,
		Checksum: checksum,
	}, nil
}

// install moves the finished archive to target. go-update verifies the
// checksum and swaps files by rename; it expects the target to exist.
func install(tmpPath, target string, checksum []byte) error {
	src, err := os.Open(filepath.Clean(tmpPath))
	if err != nil {
		return fmt.Errorf("open temporary archive %s: %w", tmpPath, err)
	}

	defer func() {
		_ = src.Close()
	}()

	created, err := ensureTarget(tmpPath, target)
	if err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: ArchiveFileMode,
		Checksum:   checksum,
		Hash:       common.ChecksumFunction,
	}

	if err = goupdate.Apply(src, options); err != nil {
		if created {
			_ = os.Remove(target)
		}

		return fmt.Errorf("move archive into %s: %w", target, err)
	}

	return nil
}

// ensureTarget makes sure a file exists at target and reports whether it
// created one. The finished temporary archive is hard-linked there, so an
// interrupted apply still leaves a complete archive. An empty file is the
// fallback on filesystems without hard links.
func ensureTarget(tmpPath, target string) (bool, error) {
	_, err := os.Lstat(target)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", target, err)
	}

	if err = os.Link(tmpPath, target); err == nil {
		return true, nil
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, ArchiveFileMode)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", target, err)
	}

	if err = file.Close(); err != nil {
		return true, fmt.Errorf("close %s: %w", target, err)
	}

	return true, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))

	return len(p), nil
}
