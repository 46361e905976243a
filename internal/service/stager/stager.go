package stager

import (
	"context"
	"path/filepath"

	"github.com/oshokin/modbuilder/internal/domain/module"
	"github.com/oshokin/modbuilder/internal/fsops"
	"github.com/oshokin/modbuilder/internal/logger"
)

// Stager copies files into one staging root.
type Stager struct {
	paths   module.Paths
	service module.Service
}

// New creates a Stager for the given layout and daemon description.
func New(paths module.Paths, service module.Service) *Stager {
	return &Stager{
		paths:   paths,
		service: service,
	}
}

// StageStatic merges <static>/system into <staging>/system.
func (s *Stager) StageStatic(ctx context.Context) error {
	src := filepath.Join(s.paths.StaticDir, module.SystemDir)
	dst := filepath.Join(s.paths.StagingDir, module.SystemDir)

	return s.stageDir(ctx, "static files", src, dst)
}

// StageBuildOutputs merges each prebuilt output directory into <staging>/system/<name>.
// Directories are independent: a missing one does not affect the others.
func (s *Stager) StageBuildOutputs(ctx context.Context) error {
	for _, name := range module.BuildOutputDirs() {
		src := filepath.Join(s.paths.OutDir, name)
		dst := filepath.Join(s.paths.StagingDir, module.SystemDir, name)

		if err := s.stageDir(ctx, name, src, dst); err != nil {
			return err
		}
	}

	return nil
}

// FixPermissions makes the daemon binary executable when it has been staged.
func (s *Stager) FixPermissions(ctx context.Context) error {
	binary := filepath.Join(s.paths.StagingDir, filepath.FromSlash(s.service.BinaryPath()))

	found, err := fsops.Exists(binary)
	if err != nil {
		return err
	}

	if !found {
		logger.DebugKV(ctx, "Daemon binary is not staged, skipping permissions", "path", binary)
		return nil
	}

	if err = fsops.AddExecute(binary); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Made daemon binary executable", "binary", s.service.Binary)

	return nil
}

func (s *Stager) stageDir(ctx context.Context, what, src, dst string) error {
	found, err := fsops.IsDir(src)
	if err != nil {
		return err
	}

	if !found {
		logger.DebugKV(ctx, "Source directory is absent, skipping", "what", what, "path", src)
		return nil
	}

	copied, err := fsops.CopyTree(src, dst)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Staged "+what, "files", copied, "destination", dst)

	return nil
}
