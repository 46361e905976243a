// Package emitter writes the generated module files into the staging root.
package emitter

import (
	"context"
	"path/filepath"

	"github.com/oshokin/modbuilder/internal/fsops"
	"github.com/oshokin/modbuilder/internal/logger"
	"github.com/oshokin/modbuilder/internal/templates"
)

// Emitter renders every template into one staging root.
type Emitter struct {
	stagingDir string
	data       templates.Data
}

// New creates an Emitter writing under stagingDir.
func New(stagingDir string, data templates.Data) *Emitter {
	return &Emitter{
		stagingDir: stagingDir,
		data:       data,
	}
}

// Emit renders and writes all generated files, stopping at the first failure.
// It returns the staging-relative paths it wrote, in emission order.
func (e *Emitter) Emit(ctx context.Context) ([]string, error) {
	all := templates.Files()
	written := make([]string, 0, len(all))

	for _, f := range all {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		contents, err := f.Render(e.data)
		if err != nil {
			return written, err
		}

		target := filepath.Join(e.stagingDir, filepath.FromSlash(f.Path))
		if err = fsops.WriteFile(target, contents, f.Mode); err != nil {
			return written, err
		}

		written = append(written, f.Path)

		logger.InfoKV(ctx, "Generated "+f.Name, "path", f.Path, "mode", f.Mode.String())
	}

	return written, nil
}
