package docscmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
)

type downloadCommander struct {
	apiTarget string
	timeout   string
	output    string
	force     bool
}

const downloadLongDesc string = `Download the original file of a document.

The file is written to --output, or to the document's filename in the
current directory. Use "-o -" to write to stdout.

Examples:
  kb docs download handbook.pdf
  kb docs download keynote.mp4 -o ~/Videos/keynote.mp4
  kb docs download notes.md -o - | less`

const downloadShortDesc string = "Download the original file of a document"

func newDownloadCmd() *cobra.Command {
	cmder := &downloadCommander{}

	cmd := &cobra.Command{
		Use:   "download <filename>",
		Short: downloadShortDesc,
		Long:  downloadLongDesc,
		Args:  cobra.ExactArgs(1),
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

			filename := args[0]
			if cmder.output == "-" {
				_, err := kb.DownloadDocument(cmd.Context(), filename, cmd.OutOrStdout())
				return err
			}

			target := cmder.output
			if target == "" {
				target = filepath.Base(filename)
			}
			return cmder.toFile(cmd, filename, target, func(w io.Writer) (int64, error) {
				return kb.DownloadDocument(cmd.Context(), filename, w)
			})
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Output path, or - for stdout")
	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

// toFile downloads into a temp file next to target and renames it into
// place, so a failed download never leaves a truncated file behind.
func (c *downloadCommander) toFile(cmd *cobra.Command, filename, target string, fetch func(io.Writer) (int64, error)) error {
	if _, err := os.Stat(target); err == nil && !c.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".kb-download-*")
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var n int64
	err = cliui.Step(cmd.ErrOrStderr(), "Downloading "+filename, func() error {
		var ferr error
		n, ferr = fetch(tmp)
		if cerr := tmp.Close(); ferr == nil {
			ferr = cerr
		}
		return ferr
	})
	if err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("saving %s: %w", target, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s Saved %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(target),
		cliui.DimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatBytes(n))),
	)
	return nil
}
