// Package docscmder provides the docs command for browsing and managing the
// documents ingested into the knowledge base.
package docscmder

import (
	"github.com/spf13/cobra"
)

const docsLongDesc string = `Browse and manage ingested documents.

Use subcommands to list, search, download or delete documents:
  kb docs list                 List documents, optionally filtered
  kb docs search <text>        Search documents on the server
  kb docs download <filename>  Download the original file
  kb docs delete <filename>    Delete a document from the knowledge base

Examples:
  kb docs list --type video
  kb docs list --search onboarding --tag hr
  kb docs download handbook.pdf -o ./handbook.pdf
  kb docs delete old-handbook.pdf --yes`

const docsShortDesc string = "Browse and manage ingested documents"

func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   docsShortDesc,
		Long:    docsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}
