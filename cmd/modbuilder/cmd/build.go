package cmd

import (
	"github.com/spf13/cobra"
)

func newBuildCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [project-root]",
		Short: "Stage, generate and archive the module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, f, args)
		},
	}

	cmd.Flags().BoolVar(&f.clean, "clean", false, "remove previous build outputs first")

	return cmd
}
