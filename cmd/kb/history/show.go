package historycmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/chat"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/history"
)

type showCommander struct {
	storeFlags
	sources bool
}

const showShortDesc string = "Print the transcript of a session"

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *history.Store) error {
				session, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printTranscript(cmd.OutOrStdout(), session, cmder.sources)
				return nil
			})
		},
	}

	cmder.register(cmd)
	cmd.Flags().BoolVarP(&cmder.sources, "sources", "s", false, "Also print the sources cited by each answer")

	return cmd
}

func printTranscript(w io.Writer, session *chat.Session, withSources bool) {
	fmt.Fprintf(w, "  %s %s\n\n", cliui.KeyStyle.Render("Session"), cliui.IDStyle.Render(session.ID))

	for _, m := range session.Messages {
		fmt.Fprintf(w, "  %s %s\n",
			cliui.RoleStyle.Render(string(m.Role)),
			cliui.DimStyle.Render(cliui.FormatTime(m.CreatedAt)),
		)
		fmt.Fprintf(w, "%s\n\n", m.Content)

		if m.Failed() {
			fmt.Fprintf(w, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(m.Error))
		}
		if withSources {
			cliui.Sources(w, m.Sources)
		}
	}
}
