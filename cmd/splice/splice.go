// Package splicecmder
package splicecmder

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/splice/cmd/splice/chat"
	configcmder "github.com/papercomputeco/splice/cmd/splice/config"
	mcpcmder "github.com/papercomputeco/splice/cmd/splice/mcp"
	mockcmder "github.com/papercomputeco/splice/cmd/splice/mock"
	versioncmder "github.com/papercomputeco/splice/cmd/version"
)

const spliceLongDesc string = `Splice streams chat completions in your terminal.

Chat with any OpenAI-compatible endpoint:
  splice chat            Start an interactive chat session

Run local services using:
  splice mock            Run a scriptable chat-completions server
  splice mcp             Serve the built-in tools over MCP`

const spliceShortDesc string = "Splice - Streaming chat completions"

func NewSpliceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splice",
		Short: spliceShortDesc,
		Long:  spliceLongDesc,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A .env in the working directory can supply API keys.
			_ = godotenv.Load()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .splice/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(mockcmder.NewMockCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
