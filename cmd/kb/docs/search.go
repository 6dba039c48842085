package docscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

type searchCommander struct {
	apiTarget string
	timeout   string
	query     client.DocumentQuery
	jsonOut   bool
}

const searchLongDesc string = `Search documents on the server.

Sends a structured query to the document collection. Unlike "kb docs list",
filtering happens on the server, which can page through large collections.

Examples:
  kb docs search onboarding
  kb docs search "release notes" --type document --limit 5`

const searchShortDesc string = "Search documents on the server"

func newSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
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

			cmder.query.Search = strings.Join(args, " ")
			docs, err := kb.SearchDocuments(cmd.Context(), cmder.query)
			if err != nil {
				return fmt.Errorf("searching documents: %w", err)
			}

			if cmder.jsonOut {
				return writeJSON(cmd.OutOrStdout(), docs)
			}
			printDocuments(cmd.OutOrStdout(), docs)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().StringVarP(&cmder.query.Type, "type", "t", "", "Only documents of this type (document or video)")
	cmd.Flags().StringSliceVar(&cmder.query.Tags, "tag", nil, "Only documents with these tags")
	cmd.Flags().StringVar(&cmder.query.Category, "category", "", "Only documents in this category")
	cmd.Flags().IntVarP(&cmder.query.Limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().IntVar(&cmder.query.Offset, "offset", 0, "Number of results to skip")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print documents as JSON")

	return cmd
}
