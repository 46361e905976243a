//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/modbuilder/internal/logger"
)

// LockFilename marks a build in progress inside the build directory.
const LockFilename = ".modbuilder.lock"

// ErrBuildInProgress is returned when another live process holds the build lock.
var ErrBuildInProgress = errors.New("another build is running in this build directory")

// processAlive is swapped in tests.
//
//nolint:gochecknoglobals // Test seam for process lookup.
var processAlive = func(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}

// Lock is a held build lock.
type Lock struct {
	path string
}

// AcquireLock creates the lock marker in dir. A marker whose owner process no
// longer exists is considered stale and replaced.
func AcquireLock(ctx context.Context, dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create build directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, LockFilename)

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := file.WriteString(strconv.Itoa(os.Getpid()))
			cerr := file.Close()

			if werr = errors.Join(werr, cerr); werr != nil {
				_ = os.Remove(path)

				return nil, fmt.Errorf("write lock %s: %w", path, werr)
			}

			return &Lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock %s: %w", path, err)
		}

		stale, err := isStale(path)
		if err != nil {
			return nil, err
		}

		if !stale {
			return nil, fmt.Errorf("%s: %w", path, ErrBuildInProgress)
		}

		logger.WarnKV(ctx, "Removing stale build lock", "path", path)

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("%s: %w", path, ErrBuildInProgress)
}

// isStale reports whether the lock's owner is gone. Unreadable content counts as stale.
func isStale(path string) (bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("read lock %s: %w", path, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return true, nil
	}

	if pid == os.Getpid() {
		return false, nil
	}

	alive, err := processAlive(pid)
	if err != nil {
		return false, fmt.Errorf("look up lock owner %d: %w", pid, err)
	}

	return !alive, nil
}

// Release removes the lock marker.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}

	return nil
}
