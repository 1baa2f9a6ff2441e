package commands

import (
	"github.com/dmitrijs2005/gophportal/internal/cli"
	"github.com/spf13/cobra"
)

func newPortalCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "portal",
		Short: "Start the interactive search portal",
		Long: `Starts the interactive search portal. Usage:

	gophportal portal --sources newest=db.db,archive=old.db
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			deps, err := openPortal(ctx, e)
			if err != nil {
				return err
			}
			defer func() {
				if err := deps.Close(); err != nil {
					e.log.Warn(ctx, "closing portal", "err", err)
				}
			}()

			app := cli.NewApp(deps.store.accounts, deps.search, cmd.InOrStdin(), cmd.OutOrStdout(), e.cfg.SearchLimit, e.log)
			app.Run(ctx)
			return nil
		},
	}
}
