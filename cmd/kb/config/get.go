package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"
)

const getLongDesc string = `Print the value of a configuration key.

Only the value is printed, so the output can be used in scripts. Keys that
were never set print their default.

Examples:
  kb config get client.api_target
  curl "$(kb config get client.api_target)/api/ingestion/documents"`

const getShortDesc string = "Print a configuration value"

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             getShortDesc,
		Long:              getLongDesc,
		Args:              keyArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			value, err := f.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}
