package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/spf13/cobra"
)

func newQuotaCommand(e *env) *cobra.Command {
	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "Inspect or replenish a user's query quota",
	}

	quotaCmd.AddCommand(&cobra.Command{
		Use:   "set <username> <n>",
		Short: "Overwrite the remaining query count",
		Long: `Overwrites the remaining query count. Put "--" before the arguments
when the count is negative so it is not read as a flag:

	gophportal quota set alice 10
	gophportal quota set -- alice -1
`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", common.ErrValidation, args[1])
			}

			store, err := openAccounts(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.accounts.UpdateRemainingQueries(cmd.Context(), args[0], n); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d queries remaining\n", strings.TrimSpace(args[0]), n)
			return nil
		},
	})

	quotaCmd.AddCommand(&cobra.Command{
		Use:   "show <username>",
		Short: "Print the remaining query count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAccounts(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := store.accounts.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d queries remaining\n", u.Username, u.RemainingQueries)
			if u.LastSearch != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "last search: %s\n", u.LastSearch.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})

	return quotaCmd
}
