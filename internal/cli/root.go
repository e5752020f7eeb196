// Package cli is the command-line adapter around the snowflake Generator.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paraglidehq/snowflake/internal/config"
	"github.com/paraglidehq/snowflake/internal/logger"
)

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the snowflake command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "snowflake",
		Short: "Allocate and inspect 64-bit Snowflake IDs",
		Long: `snowflake allocates unique, time-ordered 64-bit IDs composed of a
millisecond timestamp, a datacenter ID, a node ID and a per-millisecond
sequence. Datacenter and node IDs must be assigned to each process out of band.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(newNextCommand(opts))
	root.AddCommand(newDecodeCommand())
	root.AddCommand(newMigrateCommand(opts))

	return root
}

// Execute runs the root command against the given args.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// loadConfig layers the config file, the environment and any flags that
// were set explicitly, then validates the result.
func (o *globalOptions) loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Logger(withErrOutput(cmd)), nil
}

// withErrOutput sends logs to the command's error stream, keeping stdout
// for IDs.
func withErrOutput(cmd *cobra.Command) logger.Option {
	return logger.WithOutput(cmd.ErrOrStderr())
}
