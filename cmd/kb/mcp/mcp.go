// Package mcpcmder provides the mcp command, which exposes the knowledge
// base to MCP clients such as coding agents.
package mcpcmder

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/mcpbridge"
)

type mcpCommander struct {
	apiTarget string
	timeout   string
	listen    string
}

const mcpLongDesc string = `Serve the knowledge base over the Model Context Protocol.

By default the server speaks MCP over stdin/stdout, for agents that launch
it as a subprocess. With --listen it serves streamable HTTP instead.

Tools:
  list_documents  List ingested documents, optionally filtered
  ask             Ask a question and get the answer with its citations

Resources:
  kb://system-prompt  The current chat system prompt

Examples:
  kb mcp
  kb mcp --listen :8765 --api-target http://kb.internal:8000`

const mcpShortDesc string = "Serve the knowledge base over MCP"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Load(cmd, config.FlagAPITarget, config.FlagTimeout)
			if err != nil {
				return err
			}
			defer env.Close()

			kb, err := env.Client()
			if err != nil {
				return err
			}

			server, err := mcpbridge.NewServer(mcpbridge.Config{
				KB:     kb,
				Logger: env.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cmder.listen != "" {
				err = server.RunHTTP(ctx, cmder.listen)
			} else {
				env.Logger.Debug("serving MCP over stdio", "api_target", kb.Target())
				err = server.Run(ctx)
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Serve streamable HTTP on this address instead of stdio")

	return cmd
}
