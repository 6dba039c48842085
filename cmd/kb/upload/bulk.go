package uploadcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/upload"
)

type bulkCommander struct {
	apiTarget string
	timeout   string
	docType   string
	meta      metadataFlags
}

const bulkLongDesc string = `Upload several files to the knowledge base in one request.

Arguments may be files or directories; directories contribute the regular,
non-hidden files directly inside them. Each file is titled after its name
and typed as video when its extension is a known video format. Every file
is validated before the batch is sent, so one invalid file rejects the
whole batch.

Examples:
  kb bulk-upload a.pdf b.pdf c.md
  kb bulk-upload ./recordings --type video --tag all-hands
  kb bulk-upload ./policies --category hr`

const bulkShortDesc string = "Upload several files in one batch"

func NewBulkUploadCmd() *cobra.Command {
	cmder := &bulkCommander{}

	cmd := &cobra.Command{
		Use:   "bulk-upload <path>...",
		Short: bulkShortDesc,
		Long:  bulkLongDesc,
		Args:  cobra.MinimumNArgs(1),
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

			return cmder.run(cmd, kb, args, env.Config.Upload.DefaultType)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagDocType, &cmder.docType)
	cmder.meta.register(cmd, false)

	return cmd
}

func (c *bulkCommander) run(cmd *cobra.Command, kb *client.Client, args []string, docType string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files to upload in %s", strings.Join(args, ", "))
	}

	reqs := make([]client.UploadRequest, 0, len(paths))
	for _, p := range paths {
		reqs = append(reqs, client.UploadRequest{
			Path:     p,
			Metadata: c.meta.metadata(p, docType),
		})
	}

	out := cmd.OutOrStdout()
	label := fmt.Sprintf("%d files", len(reqs))

	var result *client.BulkUploadResult
	err = runWithProgress(cmd.Context(), out, cliui.IsTerminal(out), label,
		func(ctx context.Context, tracker *upload.Tracker) error {
			var err error
			result, err = kb.BulkUpload(ctx, reqs, tracker)
			return err
		})
	if err != nil {
		return describeUploadError(err)
	}

	return printBulkResult(out, result)
}

func printBulkResult(w io.Writer, result *client.BulkUploadResult) error {
	failed := 0
	for _, r := range result.Results {
		if r.OK() {
			fmt.Fprintf(w, "  %s %s\n", cliui.SuccessMark, cliui.NameStyle.Render(r.Filename))
			continue
		}
		failed++
		reason := r.Error
		if reason == "" {
			reason = r.Message
		}
		fmt.Fprintf(w, "  %s %s %s\n", cliui.FailMark, r.Filename, cliui.ErrorStyle.Render(reason))
	}

	if result.Failed > failed {
		failed = result.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files were rejected", failed, max(len(result.Results), failed))
	}
	return nil
}

// expandPaths replaces directory arguments with the regular, non-hidden
// files directly inside them.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	return paths, nil
}
