package promptcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
)

const getLongDesc string = `Print the current system prompt.

The prompt text goes to stdout so it can be redirected to a file, edited
and passed back with "kb prompt set --file". Whether it is the server
default is noted on stderr.

Examples:
  kb prompt get
  kb prompt get > prompt.md`

const getShortDesc string = "Print the current system prompt"

func newGetCmd() *cobra.Command {
	flags := &clientFlags{}

	cmd := &cobra.Command{
		Use:   "get",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(kb *client.Client) error {
				prompt, err := kb.GetSystemPrompt(cmd.Context())
				if err != nil {
					return fmt.Errorf("getting system prompt: %w", err)
				}

				if prompt.IsDefault {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", cliui.DimStyle.Render("(server default)"))
				}

				text := prompt.Prompt
				if !strings.HasSuffix(text, "\n") {
					text += "\n"
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
