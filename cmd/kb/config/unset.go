package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
)

const unsetShortDesc string = "Restore a configuration key to its default"

func newUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unset <key>",
		Short:             unsetShortDesc,
		Args:              keyArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			if err := f.Unset(args[0]); err != nil {
				return err
			}
			value, err := f.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printLocation(out, f)
			fmt.Fprintf(out, "  %s %s reset to %s\n\n",
				cliui.SuccessMark, cliui.KeyStyle.Render(args[0]), display(value))
			return nil
		},
	}
}
