package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/modbuilder/internal/service/packager"
)

func newCleanCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [project-root]",
		Short: "Remove the build directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot(args, 0)

			if err := applyLogLevel(f, root); err != nil {
				return err
			}

			ctx, stop := newContext(cmd)
			defer stop()

			return packager.Clean(ctx, &packager.Options{
				ProjectRoot: root,
				ConfigPath:  f.configPath,
			})
		},
	}
}
