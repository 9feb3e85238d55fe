package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/menav/internal/app"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert config.yml and bookmarks.yml into config/user/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Migrate(opts.cfg, force, opts.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Written) == 0 {
				fmt.Fprintln(out, "Nothing to migrate.")
				return nil
			}
			for _, f := range report.Written {
				fmt.Fprintf(out, "wrote %s\n", f)
			}
			if len(report.Legacy) > 0 {
				fmt.Fprintln(out, "\nThe following legacy files are no longer needed and can be removed:")
				for _, f := range report.Legacy {
					fmt.Fprintf(out, "  %s\n", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config/user/site.yml")
	return cmd
}
