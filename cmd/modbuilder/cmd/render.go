package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/modbuilder/internal/service/packager"
	"github.com/oshokin/modbuilder/internal/templates"
)

func newRenderCmd(f *flags) *cobra.Command {
	names := make([]string, 0, len(templates.Files()))
	for _, file := range templates.Files() {
		names = append(names, file.Name)
	}

	return &cobra.Command{
		Use:       "render <file> [project-root]",
		Short:     "Print one generated file to stdout",
		Long:      fmt.Sprintf("Render a generated file with the project settings. Known files: %v.", names),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := templates.Lookup(filepath.ToSlash(args[0]))
			if err != nil {
				return err
			}

			cfg, err := packager.LoadConfig(projectRoot(args, 1), f.configPath)
			if err != nil {
				return err
			}

			data, err := file.Render(templates.NewData(cfg.Package(), cfg.ServiceSpec()))
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}
