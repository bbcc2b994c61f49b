// Package cli provides the command-line interface for postfilter.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nainya/postfilter/internal/config"
	"github.com/nainya/postfilter/internal/logger"
)

// Version information (set at build time).
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
)

// ErrInvalidInput is returned by check when some input lines could not be decoded
var ErrInvalidInput = errors.New("invalid input")

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "postfilter",
		Short: "Filter and blacklist evaluation for booru posts",
		Long: `postfilter evaluates search filters and blacklists against the metadata
of image board posts, either one item at a time or in batches.

Filters look like "rating:s", "score:>=10", "date:2020-01-01..2020-12-31",
"cat*" or "-gore".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			log := logger.NewLogger(logger.Config{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			if cfg.File != "" {
				log.Debug("Using config file").Str("file", cfg.File).Send()
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, log)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./postfilter.yaml)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (trace|debug|info|warn|error|disabled)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Human readable log output")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"trace", "debug", "info", "warn", "error", "disabled"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *logger.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*logger.Logger); ok {
		return l
	}
	return logger.Nop()
}
