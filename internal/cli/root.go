// Package cli is the menav command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/menav/internal/app"
	"github.com/MrSnakeDoc/menav/internal/config"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

// rootOptions are the persistent flags, resolved into cfg before any
// command runs.
type rootOptions struct {
	root      string
	output    string
	logLevel  string
	pretty    bool
	noEnvVars bool

	cfg    *config.Config
	logger logger.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "menav",
		Short: "Static personal navigation page generator",
		Long: `menav builds a single-page personal navigation site (bookmarks,
projects, articles) from layered YAML configuration, and can serve it
locally with search and automatic rebuilds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.root, "root", ".", "project directory (env MENAV_ROOT)")
	flags.StringVarP(&opts.output, "output", "o", "dist", "output directory, relative to --root (env MENAV_OUTPUT_DIR)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error (env MENAV_LOG_LEVEL)")
	flags.BoolVar(&opts.pretty, "pretty", true, "human-readable logs instead of JSON (env MENAV_PRETTY_LOG)")
	flags.BoolVar(&opts.noEnvVars, "no-env", false, "ignore MENAV_SET_* configuration overrides")

	cmd.AddCommand(
		newBuildCmd(opts),
		newServeCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// resolve loads the environment, lets explicitly set flags win, and builds
// the logger.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Load()
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.root
	}
	if flags.Changed("output") {
		cfg.OutputDir = o.output
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("pretty") {
		cfg.PrettyLog = o.pretty
	}
	cfg.IgnoreEnvOverrides = o.noEnvVars

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	o.logger = app.NewLogger(cfg)
	return nil
}
