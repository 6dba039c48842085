package promptcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
)

type setCommander struct {
	clientFlags
	file string
}

const setLongDesc string = `Replace the system prompt.

The new prompt is read from --file, from the arguments, or from stdin, in
that order of preference. An empty prompt is refused; use "kb prompt reset"
to go back to the server default.

Examples:
  kb prompt set --file prompt.md
  kb prompt set "You answer questions about the engineering handbook."
  kb prompt get | sed 's/briefly/in detail/' | kb prompt set`

const setShortDesc string = "Replace the system prompt"

func newSetCmd() *cobra.Command {
	cmder := &setCommander{}

	cmd := &cobra.Command{
		Use:   "set [prompt]",
		Short: setShortDesc,
		Long:  setLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := cmder.read(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("refusing to set an empty system prompt")
			}

			return withClient(cmd, func(kb *client.Client) error {
				if _, err := kb.UpdateSystemPrompt(cmd.Context(), text); err != nil {
					return fmt.Errorf("updating system prompt: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s System prompt updated %s\n",
					cliui.SuccessMark, cliui.DimStyle.Render(fmt.Sprintf("(%d characters)", len([]rune(text)))))
				return nil
			})
		},
	}

	cmder.register(cmd)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Read the prompt from a file")

	return cmd
}

func (c *setCommander) read(stdin io.Reader, args []string) (string, error) {
	switch {
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", fmt.Errorf("reading prompt file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	return string(data), nil
}
