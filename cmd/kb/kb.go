// Package kbcmder is the root of the kb command tree.
package kbcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/kbconsole/cmd/kb/chat"
	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	configcmder "github.com/papercomputeco/kbconsole/cmd/kb/config"
	docscmder "github.com/papercomputeco/kbconsole/cmd/kb/docs"
	historycmder "github.com/papercomputeco/kbconsole/cmd/kb/history"
	mcpcmder "github.com/papercomputeco/kbconsole/cmd/kb/mcp"
	promptcmder "github.com/papercomputeco/kbconsole/cmd/kb/prompt"
	uploadcmder "github.com/papercomputeco/kbconsole/cmd/kb/upload"
	watchcmder "github.com/papercomputeco/kbconsole/cmd/kb/watch"
	versioncmder "github.com/papercomputeco/kbconsole/cmd/version"
)

const kbLongDesc string = `kb is a terminal console for a knowledge-base API.

Ask questions and manage what the knowledge base knows:
  kb chat                Chat with the knowledge base
  kb upload <file>       Upload a document or video
  kb bulk-upload <path>  Upload several files in one batch
  kb watch <dir>         Upload files dropped into a folder
  kb docs                List, search, download and delete documents
  kb prompt              View and edit the chat system prompt
  kb history             Browse recorded chat sessions
  kb mcp                 Serve the knowledge base over MCP
  kb config              Manage persistent configuration

Point kb at your API with --api-target, KB_CLIENT_API_TARGET, or
"kb config set client.api_target <url>".`

const kbShortDesc string = "kb - knowledge-base console"

func NewKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kb",
		Short:         kbShortDesc,
		Long:          kbLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP(cmdutil.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(cmdutil.FlagConfigDir, "", "Override path to the .kbconsole/ config directory")
	cmd.PersistentFlags().String(cmdutil.FlagLogFile, "", "Also write JSON logs to this file")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(docscmder.NewDocsCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(uploadcmder.NewBulkUploadCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(promptcmder.NewPromptCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
