package docscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

type listCommander struct {
	apiTarget string
	timeout   string
	opts      client.ListOptions
	jsonOut   bool
}

const listLongDesc string = `List documents in the knowledge base.

Filters combine: a document must match all of them. --search matches
filename, title, description and tags, ignoring case.

Examples:
  kb docs list
  kb docs list --type video
  kb docs list --search "quarterly report" --json`

const listShortDesc string = "List documents"

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   listShortDesc,
		Long:    listLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Load(cmd, config.FlagAPITarget, config.FlagTimeout)
			if err != nil {
				return err
			}
			defer env.Close()

			c, err := env.Client()
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), c, cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().StringVarP(&cmder.opts.Search, "search", "s", "", "Only documents matching this text")
	cmd.Flags().StringVarP(&cmder.opts.Type, "type", "t", "", "Only documents of this type (document or video)")
	cmd.Flags().StringVar(&cmder.opts.Tag, "tag", "", "Only documents with this tag")
	cmd.Flags().StringVar(&cmder.opts.Category, "category", "", "Only documents in this category")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print documents as JSON")

	return cmd
}

func (c *listCommander) run(ctx context.Context, kb *client.Client, out io.Writer) error {
	docs, err := kb.ListDocuments(ctx, c.opts)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if c.jsonOut {
		return writeJSON(out, docs)
	}
	printDocuments(out, docs)
	return nil
}

func writeJSON(out io.Writer, docs []client.Document) error {
	if docs == nil {
		docs = []client.Document{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

// printDocuments renders one block per document.
func printDocuments(out io.Writer, docs []client.Document) {
	if len(docs) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No documents found."))
		return
	}

	fmt.Fprintln(out)
	for _, d := range docs {
		kind := d.Type
		if kind == "" {
			kind = client.TypeDocument
		}

		fmt.Fprintf(out, "  %s %s\n",
			cliui.NameStyle.Render(d.Name()),
			cliui.DimStyle.Render(fmt.Sprintf("(%s)", kind)),
		)
		fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("file:"), cliui.ValueStyle.Render(d.Filename))

		var meta []string
		if d.Size > 0 {
			meta = append(meta, cliui.FormatBytes(d.Size))
		}
		if d.ChunkCount > 0 {
			meta = append(meta, fmt.Sprintf("%d chunks", d.ChunkCount))
		}
		if !d.UploadedAt.IsZero() {
			meta = append(meta, "uploaded "+cliui.FormatTime(d.UploadedAt))
		}
		if len(meta) > 0 {
			fmt.Fprintf(out, "    %s\n", cliui.DimStyle.Render(strings.Join(meta, " · ")))
		}
		if len(d.Tags) > 0 {
			fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("tags:"), cliui.ValueStyle.Render(strings.Join(d.Tags, ", ")))
		}
		if d.Description != "" {
			fmt.Fprintf(out, "    %s\n", cliui.PreviewStyle.Render(cliui.Truncate(d.Description, 100)))
		}
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d document(s)", len(docs))))
}
