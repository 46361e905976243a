package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/modbuilder/internal/domain/module"
	"github.com/oshokin/modbuilder/internal/layout"
	"github.com/oshokin/modbuilder/internal/logger"
	"github.com/oshokin/modbuilder/internal/service/packager"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 500 * time.Millisecond

// BuildFunc runs one build.
type BuildFunc func(ctx context.Context) error

// Options are inputs accepted by the watcher entry point.
type Options struct {
	// Build configures every build started by the watcher.
	Build packager.Options
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
}

// Watcher turns filesystem events into sequential rebuilds.
type Watcher struct {
	paths    module.Paths
	debounce time.Duration
	build    BuildFunc
	fsw      *fsnotify.Watcher
}

// Run builds once, then rebuilds on every change until ctx is done.
// A failed build is logged and the watcher keeps going.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "watcher")

	paths, err := packager.ResolvePaths(&opts.Build)
	if err != nil {
		return err
	}

	build := func(ctx context.Context) error {
		return packager.Run(ctx, &opts.Build)
	}

	w, err := New(paths, opts.Debounce, build)
	if err != nil {
		return err
	}

	defer func() {
		_ = w.Close()
	}()

	w.rebuild(ctx)

	return w.Watch(ctx)
}

// New creates a Watcher for the given layout and registers the watched directories.
func New(paths module.Paths, debounce time.Duration, build BuildFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		paths:    paths,
		debounce: debounce,
		build:    build,
		fsw:      fsw,
	}

	for _, root := range []string{paths.ProjectRoot, paths.OutDir} {
		if err = w.addTree(root); err != nil {
			_ = fsw.Close()

			return nil, err
		}
	}

	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watch runs the event loop until ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	logger.InfoKV(ctx, "Watching for changes", "project", w.paths.ProjectRoot, "out", w.paths.OutDir)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !w.relevant(event) {
				continue
			}

			logger.DebugKV(ctx, "Change detected", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				w.watchIfDir(ctx, event.Name)
			}

			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			logger.ErrorKV(ctx, "File watcher error", "error", err)

		case <-timer.C:
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	if err := w.build(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		logger.ErrorKV(ctx, "Build failed, waiting for the next change", "error", err)
	}
}

// relevant filters out events produced by the build itself and permission-only changes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	return !w.ignored(event.Name)
}

func (w *Watcher) ignored(path string) bool {
	if layout.Within(w.paths.BuildDir, path) {
		return true
	}

	return strings.HasPrefix(filepath.Base(path), ".git")
}

func (w *Watcher) watchIfDir(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	if err = w.addTree(path); err != nil {
		logger.WarnKV(ctx, "Unable to watch new directory", "path", path, "error", err)
	}
}

// addTree watches root and all its subdirectories; a missing root is skipped.
func (w *Watcher) addTree(root string) error {
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if !d.IsDir() {
			return nil
		}

		if w.ignored(path) {
			return filepath.SkipDir
		}

		if err = w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}
