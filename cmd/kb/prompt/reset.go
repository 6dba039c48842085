package promptcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
)

const resetShortDesc string = "Restore the server's default system prompt"

func newResetCmd() *cobra.Command {
	flags := &clientFlags{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: resetShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(kb *client.Client) error {
				if _, err := kb.ResetSystemPrompt(cmd.Context()); err != nil {
					return fmt.Errorf("resetting system prompt: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s System prompt reset to the default\n", cliui.SuccessMark)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
