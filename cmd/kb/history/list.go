package historycmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/history"
	"github.com/papercomputeco/kbconsole/pkg/utils"
)

const idWidth = 8

type listCommander struct {
	storeFlags
	limit int
}

const listShortDesc string = "List recorded sessions, newest first"

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   listShortDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(store *history.Store) error {
				sessions, err := store.List(cmd.Context(), cmder.limit)
				if err != nil {
					return err
				}
				printSessions(cmd.OutOrStdout(), sessions)
				return nil
			})
		},
	}

	cmder.register(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of sessions to list (0 for all)")

	return cmd
}

func printSessions(w io.Writer, sessions []history.Summary) {
	if len(sessions) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No sessions recorded yet."))
		return
	}

	width := cliui.Width(w, 100)
	titleWidth := max(20, width-idWidth-30)
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %-*s  %s  %s\n",
			cliui.IDStyle.Render(utils.Truncate(s.ID, idWidth)),
			titleWidth, cliui.Truncate(s.Title, titleWidth),
			cliui.DimStyle.Render(fmt.Sprintf("%3d msgs", s.MessageCount)),
			cliui.DimStyle.Render(cliui.FormatTime(s.UpdatedAt)),
		)
	}
}
