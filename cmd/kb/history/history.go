// Package historycmder provides the history command for browsing the chat
// sessions recorded in the local history database.
package historycmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/history"
)

const historyLongDesc string = `Browse recorded chat sessions.

Every "kb chat" session is stored in a local SQLite database unless history
is disabled. Sessions are addressed by id or by any unique id prefix.

Examples:
  kb history list
  kb history show 3f2a9c
  kb history delete 3f2a9c
  kb chat --resume 3f2a9c`

const historyShortDesc string = "Browse recorded chat sessions"

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

type storeFlags struct {
	historyPath string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagHistoryPath, &f.historyPath)
}

// withStore loads configuration and runs fn with the history store open.
func withStore(cmd *cobra.Command, fn func(*history.Store) error) error {
	env, err := cmdutil.Load(cmd, config.FlagHistoryPath)
	if err != nil {
		return err
	}
	defer env.Close()

	store, err := env.OpenHistory()
	if err != nil {
		return err
	}
	return fn(store)
}
