// Package toolboxcmder
package toolboxcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/toolbox/cmd/toolbox/auth"
	callscmder "github.com/papercomputeco/toolbox/cmd/toolbox/calls"
	codecmder "github.com/papercomputeco/toolbox/cmd/toolbox/code"
	configcmder "github.com/papercomputeco/toolbox/cmd/toolbox/config"
	servecmder "github.com/papercomputeco/toolbox/cmd/toolbox/serve"
	versioncmder "github.com/papercomputeco/toolbox/cmd/toolbox/version"
	webcmder "github.com/papercomputeco/toolbox/cmd/toolbox/web"
)

const toolboxLongDesc string = `Toolbox serves LLM-backed code tools and web tools over HTTP and MCP.

Run the server:
  toolbox serve                  Run the API server with its MCP endpoint

Or call the tools directly:
  toolbox code analyze <file>    Analyze a source file
  toolbox web scrape <url>       Extract content from a page
  toolbox calls                  List recorded tool calls

Store provider keys with toolbox auth, or set OPENAI_API_KEY and ANTHROPIC_API_KEY.`

const toolboxShortDesc string = "Toolbox - LLM code and web tools"

func NewToolboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "toolbox",
		Short:        toolboxShortDesc,
		Long:         toolboxLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .toolbox/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(codecmder.NewCodeCmd())
	cmd.AddCommand(webcmder.NewWebCmd())
	cmd.AddCommand(callscmder.NewCallsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
