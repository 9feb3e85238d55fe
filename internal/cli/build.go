package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/menav/internal/app"
	"github.com/MrSnakeDoc/menav/internal/site"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Generate the site into the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Build(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built %s (%s, %d pages, %d cards) in %s\n",
				filepath.Join(res.OutputDir, site.IndexFile),
				humanize.Bytes(uint64(res.Size)),
				len(res.Config.Navigation),
				len(res.Records),
				res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
