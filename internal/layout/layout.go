// Package layout resolves the directories of a build from the project root.
package layout

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/modbuilder/internal/config"
	"github.com/oshokin/modbuilder/internal/domain/module"
)

const (
	staticDirName = "static"
	outDirName    = "out"
	buildDirName  = "build"
)

// Plan computes the PathSet for root. Nothing is checked on disk.
//
// Defaults: static = <root>/static, out = <root>/../out (prebuilts live next
// to the builder project), build = <root>/build, staging = <build>/module.
// Non-empty overrides replace a default; relative ones resolve against root.
func Plan(root string, overrides config.PathSettings) module.Paths {
	root = filepath.Clean(root)

	buildDir := resolve(root, overrides.Build, filepath.Join(root, buildDirName))

	return module.Paths{
		ProjectRoot: root,
		StaticDir:   resolve(root, overrides.Static, filepath.Join(root, staticDirName)),
		OutDir:      resolve(root, overrides.Out, filepath.Join(filepath.Dir(root), outDirName)),
		BuildDir:    buildDir,
		StagingDir:  filepath.Join(buildDir, module.StagingDirName),
	}
}

func resolve(root, override, fallback string) string {
	switch {
	case override == "":
		return fallback
	case filepath.IsAbs(override):
		return filepath.Clean(override)
	default:
		return filepath.Join(root, override)
	}
}

// Check rejects layouts where cleaning the build directory would remove
// inputs or staging would copy the build into itself. The build directory
// must not hold the project root or either source directory, and must not
// lie inside a subtree that gets staged.
func Check(paths module.Paths) error {
	guarded := []struct {
		name, path string
	}{
		{"project root", paths.ProjectRoot},
		{"static directory", paths.StaticDir},
		{"output directory", paths.OutDir},
	}

	for _, g := range guarded {
		if Within(paths.BuildDir, g.path) {
			return fmt.Errorf("paths.build %s contains the %s %s: %w",
				paths.BuildDir, g.name, g.path, config.ErrInvalidValue)
		}
	}

	sources := []string{filepath.Join(paths.StaticDir, module.SystemDir)}
	for _, name := range module.BuildOutputDirs() {
		sources = append(sources, filepath.Join(paths.OutDir, name))
	}

	for _, src := range sources {
		if Within(src, paths.BuildDir) {
			return fmt.Errorf("paths.build %s lies inside the staged source %s: %w",
				paths.BuildDir, src, config.ErrInvalidValue)
		}
	}

	return nil
}

// Within reports whether path is dir or lies below it. Both are compared lexically.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
