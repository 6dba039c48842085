// Package uploadcmder provides the upload and bulk-upload commands for
// ingesting files into the knowledge base.
package uploadcmder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/upload"
)

// metadataFlags are the metadata options shared by upload and bulk-upload.
type metadataFlags struct {
	title       string
	displayName string
	description string
	category    string
	tags        []string
}

func (f *metadataFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&f.title, "title", "", "Document title (defaults to the file name)")
		cmd.Flags().StringVar(&f.displayName, "display-name", "", "Name shown in citations")
	}
	cmd.Flags().StringVar(&f.description, "description", "", "Short description of the content")
	cmd.Flags().StringVar(&f.category, "category", "", "Category used for filtering")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag to attach (repeatable or comma separated)")
}

// metadata builds the metadata for path, filling in what the flags leave
// empty from the file name.
func (f *metadataFlags) metadata(path, docType string) client.Metadata {
	m := client.MetadataFromFilename(path, docType)
	if f.title != "" {
		m.Title = f.title
	}
	m.DisplayName = f.displayName
	m.Description = f.description
	m.Category = f.category
	m.Tags = f.tags
	return m
}

type uploadCommander struct {
	apiTarget string
	timeout   string
	docType   string
	meta      metadataFlags
}

var uploadFlags = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
	config.FlagDocType,
}

const uploadLongDesc string = `Upload a document or video to the knowledge base.

The file is validated locally before anything is sent: a title is required
(the file name is used when --title is not given) and files above 1.5 GiB are
rejected. Progress covers the transfer and then the server-side processing;
the upload is complete once the server confirms it.

Press q during the upload to cancel it.

Examples:
  kb upload handbook.pdf
  kb upload intro.mp4 --title "Intro to the platform" --tag onboarding
  kb upload notes.md --category engineering --description "Design notes"`

const uploadShortDesc string = "Upload a file to the knowledge base"

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd, uploadFlags...)
			if err != nil {
				return err
			}
			defer env.Close()

			kb, err := env.Client()
			if err != nil {
				return err
			}

			return cmder.run(cmd, kb, args[0], env.Config.Upload.DefaultType)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagDocType, &cmder.docType)
	cmder.meta.register(cmd, true)

	return cmd
}

func (c *uploadCommander) run(cmd *cobra.Command, kb *client.Client, path, docType string) error {
	req := client.UploadRequest{
		Path:     path,
		Metadata: c.meta.metadata(path, docType),
	}
	out := cmd.OutOrStdout()

	var result *client.UploadResult
	err := runWithProgress(cmd.Context(), out, cliui.IsTerminal(out), filepath.Base(path),
		func(ctx context.Context, tracker *upload.Tracker) error {
			var err error
			result, err = kb.Upload(ctx, req, tracker)
			return err
		})
	if err != nil {
		return describeUploadError(err)
	}

	fmt.Fprintf(out, "  %s Uploaded %s", cliui.SuccessMark, cliui.NameStyle.Render(result.Filename))
	if result.ChunksCreated > 0 {
		fmt.Fprintf(out, " %s", cliui.DimStyle.Render(fmt.Sprintf("(%d chunks)", result.ChunksCreated)))
	}
	fmt.Fprintln(out)
	if result.Message != "" {
		fmt.Fprintf(out, "    %s\n", cliui.DimStyle.Render(result.Message))
	}
	return nil
}

// describeUploadError rewords errors the user can act on.
func describeUploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrAborted):
		return errors.New("upload cancelled")
	case errors.Is(err, client.ErrMissingTitle):
		return fmt.Errorf("%w: pass --title", err)
	}
	return err
}
