// Package promptcmder provides the prompt command for viewing and editing
// the system prompt the knowledge base uses to answer chat queries.
package promptcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

const promptLongDesc string = `View and edit the chat system prompt.

The prompt is held by the server and applies to every chat session. Reset
restores the server's built-in default.

Examples:
  kb prompt get
  kb prompt set --file prompt.md
  echo "Answer briefly." | kb prompt set
  kb prompt reset`

const promptShortDesc string = "View and edit the chat system prompt"

func NewPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: promptShortDesc,
		Long:  promptLongDesc,
	}

	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newResetCmd())

	return cmd
}

// clientFlags are registered on every prompt subcommand.
type clientFlags struct {
	apiTarget string
	timeout   string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &f.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &f.timeout)
}

// withClient loads configuration and runs fn with an API client.
func withClient(cmd *cobra.Command, fn func(*client.Client) error) error {
	env, err := cmdutil.Load(cmd, config.FlagAPITarget, config.FlagTimeout)
	if err != nil {
		return err
	}
	defer env.Close()

	kb, err := env.Client()
	if err != nil {
		return err
	}
	return fn(kb)
}
