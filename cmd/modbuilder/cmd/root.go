package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/modbuilder/internal/banner"
	"github.com/oshokin/modbuilder/internal/logger"
	"github.com/oshokin/modbuilder/internal/service/packager"
	"github.com/oshokin/modbuilder/internal/version"
)

// flags holds values shared by every subcommand.
type flags struct {
	// configPath to the configuration YAML file; empty means <root>/modbuilder.yaml.
	configPath string
	// logLevel overrides the level from the configuration file.
	logLevel string
	// clean removes previous build outputs before a build.
	clean bool
}

var errUnknownLogLevel = errors.New("unknown log level")

// Execute runs the modbuilder CLI and exits with non-zero status on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. Without a subcommand it builds the module.
func newRootCmd() *cobra.Command {
	f := new(flags)

	root := &cobra.Command{
		Use:   "modbuilder [project-root]",
		Short: "Assemble a flashable Magisk module archive",
		Long: "modbuilder stages static files and prebuilt outputs into a module tree, " +
			"generates the installer scripts and packs everything into a zip.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, f, args)
		},
	}

	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "",
		"path to configuration file (default <project-root>/modbuilder.yaml)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "",
		"log level: debug, info, warn or error")
	root.Flags().BoolVar(&f.clean, "clean", false, "remove previous build outputs first")

	root.AddCommand(
		newBuildCmd(f),
		newCleanCmd(f),
		newWatchCmd(f),
		newRenderCmd(f),
		newInitCmd(f),
	)

	version.AttachCobraVersionCommand(root)

	return root
}

// newContext returns a context cancelled by SIGTERM or SIGINT.
func newContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}

// projectRoot returns the optional positional project directory.
func projectRoot(args []string, index int) string {
	if len(args) > index {
		return args[index]
	}

	return "."
}

// applyLogLevel sets the global level from --log-level, or from the
// configuration file when the flag is absent.
func applyLogLevel(f *flags, root string) error {
	value := f.logLevel

	if value == "" {
		cfg, err := packager.LoadConfig(root, f.configPath)
		if err != nil {
			// The build reports configuration errors itself.
			return nil //nolint:nilerr // Falls back to the current level.
		}

		value = cfg.LogLevel
	}

	if value == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(value)
	if !ok {
		return fmt.Errorf("%q: %w", value, errUnknownLogLevel)
	}

	logger.SetLevel(level)

	return nil
}

func runBuild(cmd *cobra.Command, f *flags, args []string) error {
	root := projectRoot(args, 0)

	if err := applyLogLevel(f, root); err != nil {
		return err
	}

	ctx, stop := newContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	banner.Print(out, "Building module")

	err := packager.Run(ctx, &packager.Options{
		ProjectRoot: root,
		ConfigPath:  f.configPath,
		Clean:       f.clean,
	})
	if err != nil {
		banner.PrintFailure(out, "Build failed")
		return err
	}

	banner.Print(out, "Build complete")

	return nil
}
