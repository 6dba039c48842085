package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

const listShortDesc string = "List every configuration key with its value"

func newListCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			cfg, err := f.Load()
			if err != nil {
				return err
			}
			defaults := config.NewDefaultConfig()

			names := config.Keys()
			width := 0
			for _, name := range names {
				width = max(width, len(name))
			}

			out := cmd.OutOrStdout()
			printLocation(out, f)
			for _, name := range names {
				k, _ := config.LookupKey(name)
				value := k.Get(cfg)

				suffix := ""
				if value == k.Get(defaults) && value != "" {
					suffix = " " + cliui.DimStyle.Render("(default)")
				}
				fmt.Fprintf(out, "  %-*s  %s%s\n", width, name, display(value), suffix)
				if verbose {
					fmt.Fprintf(out, "  %-*s  %s\n", width, "", cliui.DimStyle.Render(k.Usage))
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Describe each key")
	return cmd
}

func display(value string) string {
	if value == "" {
		return cliui.DimStyle.Render("<not set>")
	}
	return cliui.ValueStyle.Render(value)
}
