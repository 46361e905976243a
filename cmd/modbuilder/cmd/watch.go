package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/modbuilder/internal/banner"
	"github.com/oshokin/modbuilder/internal/service/packager"
	"github.com/oshokin/modbuilder/internal/service/watcher"
)

func newWatchCmd(f *flags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [project-root]",
		Short: "Rebuild the module whenever sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot(args, 0)

			if err := applyLogLevel(f, root); err != nil {
				return err
			}

			ctx, stop := newContext(cmd)
			defer stop()

			banner.Print(cmd.OutOrStdout(), "Watching module sources")

			return watcher.Run(ctx, &watcher.Options{
				Build: packager.Options{
					ProjectRoot: root,
					ConfigPath:  f.configPath,
					Clean:       f.clean,
				},
				Debounce: debounce,
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a rebuild")
	cmd.Flags().BoolVar(&f.clean, "clean", false, "remove previous build outputs before every build")

	return cmd
}
