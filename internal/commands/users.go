package commands

import (
	"bufio"
	"fmt"

	"github.com/dmitrijs2005/gophportal/internal/cli"
	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/spf13/cobra"
)

func newUsersCommand(e *env) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage portal accounts",
	}

	usersCmd.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Register an account; the password is prompted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in := cmd.InOrStdin()
			password, err := cli.GetPassword(bufio.NewReader(in), cli.TerminalFd(in), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			defer common.WipeByteArray(password)

			store, err := openAccounts(ctx, e)
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := store.accounts.Register(ctx, args[0], string(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created with %d queries.\n", u.Username, u.RemainingQueries)
			return nil
		},
	})

	return usersCmd
}
