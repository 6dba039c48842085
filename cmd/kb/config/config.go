// Package configcmder implements "kb config", which reads and edits
// config.toml in the .kbconsole/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

const configLongDesc string = `Read and edit persistent console configuration.

Values live in config.toml in the .kbconsole/ directory and become the
defaults of command flags. A flag given on the command line wins, then a
KB_* environment variable (KB_CLIENT_API_TARGET, KB_UPLOAD_WORKERS, ...),
then config.toml.

Examples:
  kb config set client.api_target http://kb.internal:8000
  kb config get client.api_target
  kb config unset chat.history_turns
  kb config list`

const configShortDesc string = "Read and edit persistent console configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newUnsetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// keyArgs requires n arguments, the first of which is a known key.
func keyArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return err
		}
		if _, ok := config.LookupKey(args[0]); !ok {
			return fmt.Errorf("%w\n\nValid keys: %s",
				&config.UnknownKeyError{Key: args[0]}, strings.Join(config.Keys(), ", "))
		}
		return nil
	}
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	comps := make([]string, 0, len(config.Keys()))
	for _, name := range config.Keys() {
		k, _ := config.LookupKey(name)
		comps = append(comps, name+"\t"+k.Usage)
	}
	return comps, cobra.ShellCompDirectiveNoFileComp
}

func openFile(cmd *cobra.Command) (*config.File, error) {
	dir, _ := cmd.Flags().GetString(cmdutil.FlagConfigDir)
	f, err := config.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return f, nil
}

func printLocation(w io.Writer, f *config.File) {
	note := ""
	if !f.Exists() {
		note = " " + cliui.DimStyle.Render("(not written yet)")
	}
	fmt.Fprintf(w, "\n  %s %s%s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(f.Path()), note)
}
