package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

The value is checked before config.toml is written: client.api_target must
be an http or https URL, client.timeout a duration such as 30s, counts
unsigned integers, switches true or false, and upload.default_type one of
document or video.

Examples:
  kb config set client.api_target http://kb.internal:8000
  kb config set client.timeout 2m
  kb config set chat.plain true
  kb config set upload.workers 2`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             setShortDesc,
		Long:              setLongDesc,
		Args:              keyArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			if err := f.Set(args[0], args[1]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printLocation(out, f)
			fmt.Fprintf(out, "  %s %s = %s\n\n",
				cliui.SuccessMark, cliui.KeyStyle.Render(args[0]), cliui.ValueStyle.Render(args[1]))
			return nil
		},
	}
}
