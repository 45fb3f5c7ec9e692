// Package cli implements the rebind command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/rebind/internal/config"
	"github.com/Faultbox/rebind/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Overrides config.Overrides
	Format    string // "json" | "text"

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rebind CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rebind",
		Short: "rebind - bind pose mesh reconstruction",
		Long: `Recover the bind-pose shape of a skinned mesh that was authored in a
deformed pose, by inverting linear blend skinning between two timeline
positions of its skeleton.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}

			cfg, err := config.Load(opts.Overrides)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.Config = cfg

			var fileCfg logger.FileConfig
			if cfg.Logging.LogFile != "" {
				fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
			}
			return logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, cmd.ErrOrStderr())
		},
	}

	// Global flags
	opts.Overrides.BindFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewReconstructCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
