package historycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/history"
)

const deleteShortDesc string = "Delete a recorded session"

func newDeleteCmd() *cobra.Command {
	flags := &storeFlags{}

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   deleteShortDesc,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *history.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted session %s\n", cliui.SuccessMark, cliui.IDStyle.Render(args[0]))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
