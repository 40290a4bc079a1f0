package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cortex/cmd/cortex/bootstrap"
	chatcmder "github.com/papercomputeco/cortex/cmd/cortex/chat"
	configcmder "github.com/papercomputeco/cortex/cmd/cortex/config"
	imagecmder "github.com/papercomputeco/cortex/cmd/cortex/image"
	mcpcmder "github.com/papercomputeco/cortex/cmd/cortex/mcp"
	servecmder "github.com/papercomputeco/cortex/cmd/cortex/serve"
	transcriptcmder "github.com/papercomputeco/cortex/cmd/cortex/transcript"
	tuicmder "github.com/papercomputeco/cortex/cmd/cortex/tui"
)

const cortexLongDesc string = `cortex is a streaming chat and image generation assistant.

Chat answers stream in from Groq (or a local Ollama daemon) as they are
generated; images come from a text-to-image endpoint. Use it from the
browser (serve), the terminal (tui, chat), or an MCP client (mcp).

Configuration is read from ./cortex.toml (or --config) and the
environment. GROQ_API_KEY is required for the default provider.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cortex",
		Short:        "Streaming chat and image generation assistant",
		Long:         cortexLongDesc,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String(bootstrap.ConfigFlag, "", "Path to config file (default ./cortex.toml if present)")
	cmd.PersistentFlags().Bool(bootstrap.DebugFlag, false, "Enable debug logging")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(imagecmder.NewImageCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(transcriptcmder.NewTranscriptCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
