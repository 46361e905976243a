package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/modbuilder/internal/config"
	"github.com/oshokin/modbuilder/internal/fsops"
	"github.com/oshokin/modbuilder/internal/logger"
)

var errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

func newInitCmd(f *flags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [project-root]",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.configPath
			if path == "" {
				path = filepath.Join(projectRoot(args, 0), config.DefaultConfigFilename)
			}

			exists, err := fsops.Exists(path)
			if err != nil {
				return err
			}

			if exists && !force {
				return fmt.Errorf("%s: %w", path, errConfigExists)
			}

			if err = config.Save(path, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Configuration written", "path", path)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}
