package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/menav/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listen string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the site and serve it with search and live rebuilds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("listen") {
				cfg.ListenPort = listen
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watch
			}
			if cmd.Flags().Changed("interval") {
				cfg.RebuildInterval, _ = cmd.Flags().GetDuration("interval")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, opts.logger)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "listen address (env MENAV_LISTEN_PORT)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when config, templates or assets change (env MENAV_WATCH)")
	cmd.Flags().Duration("interval", 0, "periodic rebuild interval, 0 disables (env MENAV_REBUILD_INTERVAL)")
	return cmd
}
