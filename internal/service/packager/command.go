package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/modbuilder/internal/config"
	"github.com/oshokin/modbuilder/internal/domain/module"
	"github.com/oshokin/modbuilder/internal/fsops"
	"github.com/oshokin/modbuilder/internal/layout"
	"github.com/oshokin/modbuilder/internal/logger"
	"github.com/oshokin/modbuilder/internal/repository/manifest"
	"github.com/oshokin/modbuilder/internal/service/archiver"
	"github.com/oshokin/modbuilder/internal/service/common"
	"github.com/oshokin/modbuilder/internal/service/emitter"
	"github.com/oshokin/modbuilder/internal/service/stager"
	"github.com/oshokin/modbuilder/internal/templates"
	"github.com/oshokin/modbuilder/internal/version"
)

// Options contains inputs for the packager entry points.
type Options struct {
	// ProjectRoot is the builder project directory; defaults to the working directory.
	ProjectRoot string
	// ConfigPath is an optional settings file. When empty, modbuilder.yaml in
	// the project root is used if it exists and the defaults otherwise.
	ConfigPath string
	// Clean removes previous build outputs before staging.
	Clean bool
}

// Result describes a finished build.
type Result struct {
	// Paths is the resolved layout of the build.
	Paths module.Paths
	// Package is the module identity that was built.
	Package module.Package
	// Archive describes the written zip.
	Archive *archiver.Result
	// ManifestPath is where the manifest was written.
	ManifestPath string
	// Manifest is the written manifest.
	Manifest *manifest.Manifest
}

// packager holds the state of one build.
// It is unexported; callers use Run or Build.
type packager struct {
	cfg   *config.Config
	pkg   module.Package
	svc   module.Service
	paths module.Paths

	archive  *archiver.Result
	manifest *manifest.Manifest
}

// step is one stage of the pipeline.
type step struct {
	name string
	run  func(ctx context.Context) error
}

var errProjectRootNotDir = errors.New("project root is not a directory")

// Run builds the module and logs a report; it is the CLI entry point.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "packager")

	result, err := Build(ctx, opts)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printReport(ctx, result)

	return nil
}

// Build runs the pipeline and returns what it produced.
func Build(ctx context.Context, opts *Options) (*Result, error) {
	p, err := newPackager(opts)
	if err != nil {
		return nil, err
	}

	lock, err := common.AcquireLock(ctx, p.paths.BuildDir)
	if err != nil {
		return nil, err
	}

	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to release build lock", "error", releaseErr)
		}
	}()

	if opts.Clean {
		if err = cleanBuildDir(ctx, p.paths.BuildDir); err != nil {
			return nil, err
		}
	}

	p.preflight(ctx)

	for _, s := range p.steps() {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		logger.DebugKV(ctx, "Running step", "step", s.name)

		if err = s.run(logger.WithName(ctx, s.name)); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	return &Result{
		Paths:        p.paths,
		Package:      p.pkg,
		Archive:      p.archive,
		ManifestPath: p.manifestPath(),
		Manifest:     p.manifest,
	}, nil
}

// Clean removes the build directory of the project.
func Clean(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "packager")

	p, err := newPackager(opts)
	if err != nil {
		return err
	}

	found, err := fsops.IsDir(p.paths.BuildDir)
	if err != nil {
		return err
	}

	if !found {
		logger.InfoKV(ctx, "Nothing to clean", "path", p.paths.BuildDir)
		return nil
	}

	lock, err := common.AcquireLock(ctx, p.paths.BuildDir)
	if err != nil {
		return err
	}

	if err = cleanBuildDir(ctx, p.paths.BuildDir); err != nil {
		_ = lock.Release()

		return err
	}

	if err = lock.Release(); err != nil {
		return err
	}

	if err = os.Remove(p.paths.BuildDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p.paths.BuildDir, err)
	}

	logger.InfoKV(ctx, "Build directory removed", "path", p.paths.BuildDir)

	return nil
}

// ResolvePaths returns the layout a build with opts would use.
func ResolvePaths(opts *Options) (module.Paths, error) {
	p, err := newPackager(opts)
	if err != nil {
		return module.Paths{}, err
	}

	return p.paths, nil
}

// newPackager resolves settings and layout without touching the filesystem beyond reads.
func newPackager(opts *Options) (*packager, error) {
	if opts == nil {
		opts = new(Options)
	}

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	isDir, err := fsops.IsDir(root)
	if err != nil {
		return nil, err
	}

	if !isDir {
		return nil, fmt.Errorf("%s: %w", root, errProjectRootNotDir)
	}

	cfg, err := LoadConfig(root, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	paths := layout.Plan(root, cfg.Paths)
	if err = layout.Check(paths); err != nil {
		return nil, err
	}

	return &packager{
		cfg:   cfg,
		pkg:   cfg.Package(),
		svc:   cfg.ServiceSpec(),
		paths: paths,
	}, nil
}

// LoadConfig loads the settings for a project. An explicit path must exist;
// the default modbuilder.yaml in root is optional.
func LoadConfig(root, path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	return config.LoadOrDefault(filepath.Join(root, config.DefaultConfigFilename))
}

// steps returns the ordered pipeline.
func (p *packager) steps() []step {
	st := stager.New(p.paths, p.svc)
	em := emitter.New(p.paths.StagingDir, templates.NewData(p.pkg, p.svc))

	return []step{
		{name: "stage-static", run: st.StageStatic},
		{name: "stage-outputs", run: st.StageBuildOutputs},
		{name: "fix-permissions", run: st.FixPermissions},
		{name: "generate", run: func(ctx context.Context) error {
			_, err := em.Emit(ctx)
			return err
		}},
		{name: "archive", run: p.writeArchive},
		{name: "manifest", run: p.writeManifest},
	}
}

// preflight warns about inputs that make the module incomplete. It never fails.
func (p *packager) preflight(ctx context.Context) {
	entries, err := os.ReadDir(p.paths.OutDir)

	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.WarnKV(ctx, "Prebuilt output directory does not exist, the module may be incomplete",
			"path", p.paths.OutDir)
	case err != nil:
		logger.WarnKV(ctx, "Unable to read prebuilt output directory", "path", p.paths.OutDir, "error", err)
	case len(entries) == 0:
		logger.WarnKV(ctx, "Prebuilt output directory is empty, the module may be incomplete",
			"path", p.paths.OutDir)
	default:
		logger.InfoKV(ctx, "Found prebuilt outputs", "path", p.paths.OutDir, "entries", len(entries))
	}
}

func (p *packager) archivePath() string {
	return filepath.Join(p.paths.BuildDir, p.pkg.ArchiveFilename())
}

func (p *packager) manifestPath() string {
	return filepath.Join(p.paths.BuildDir, p.pkg.ManifestFilename())
}

func (p *packager) writeArchive(ctx context.Context) error {
	res, err := archiver.Archive(ctx, p.paths.StagingDir, p.archivePath())
	if err != nil {
		return err
	}

	p.archive = res

	return nil
}

// writeManifest records archive entries and checksums next to the archive.
func (p *packager) writeManifest(ctx context.Context) error {
	m := manifest.New(len(p.archive.Entries))
	m.ID = p.pkg.ID
	m.Version = p.pkg.Version
	m.VersionCode = p.pkg.VersionCode
	m.Archive = filepath.Base(p.archive.Path)
	m.Checksum = common.EncodeChecksum(p.archive.Checksum)
	m.Size = p.archive.Size

	for _, entry := range p.archive.Entries {
		m.Files[entry.Name] = common.EncodeChecksum(entry.Checksum)
	}

	commit, err := manifest.SourceRevision(p.paths.ProjectRoot)
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect source revision", "error", err)
	}

	m.Commit = commit
	m.Builder = version.Short()

	if err = manifest.NewFileRepository(p.manifestPath()).Save(ctx, m); err != nil {
		return err
	}

	p.manifest = m

	logger.InfoKV(ctx, "Manifest written", "path", p.manifestPath(), "build_id", m.BuildID)

	return nil
}

// cleanBuildDir removes everything in dir except the build lock.
func cleanBuildDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.Name() == common.LockFilename {
			continue
		}

		target := filepath.Join(dir, entry.Name())
		if err = os.RemoveAll(target); err != nil {
			return fmt.Errorf("remove %s: %w", target, err)
		}
	}

	logger.InfoKV(ctx, "Previous build outputs removed", "path", dir)

	return nil
}
