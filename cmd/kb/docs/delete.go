package docscmder

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

type deleteCommander struct {
	apiTarget string
	timeout   string
	yes       bool
}

const deleteLongDesc string = `Delete documents from the knowledge base.

Removes the document and its indexed content from the server. You are
asked to confirm unless --yes is given. Deleting a document that no longer
exists is reported and counted as a failure.

Examples:
  kb docs delete old-handbook.pdf
  kb docs delete draft-1.md draft-2.md --yes`

const deleteShortDesc string = "Delete documents"

func newDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:     "delete <filename>...",
		Aliases: []string{"rm"},
		Short:   deleteShortDesc,
		Long:    deleteLongDesc,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd, config.FlagAPITarget, config.FlagTimeout)
			if err != nil {
				return err
			}
			defer env.Close()

			kb, err := env.Client()
			if err != nil {
				return err
			}

			if !cmder.yes && !confirm(cmd, args) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", cliui.DimStyle.Render("Aborted."))
				return nil
			}

			failed := 0
			for _, name := range args {
				err := kb.DeleteDocument(cmd.Context(), name)
				switch {
				case errors.Is(err, client.ErrNotFound):
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s %s\n", cliui.FailMark, name, cliui.DimStyle.Render("(not found)"))
				case err != nil:
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s %s\n", cliui.FailMark, name, cliui.ErrorStyle.Render(err.Error()))
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "  %s Deleted %s\n", cliui.SuccessMark, cliui.NameStyle.Render(name))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d deletions failed", failed, len(args))
			}
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func confirm(cmd *cobra.Command, names []string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "  Delete %s? [y/N] ", strings.Join(names, ", "))
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
