// Package configcmder provides the config command for managing persistent
// toolbox configuration stored in the .toolbox/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/pkg/config"
)

const configLongDesc string = `Manage persistent toolbox configuration.

Configuration is stored as config.toml in the .toolbox/ directory and provides
default values for command flags. CLI flags and TOOLBOX_ environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen, server.mcp,
  storage.sqlite_path, storage.postgres_dsn,
  events.provider, events.brokers, events.topic,
  completion.provider,
  openai.base_url, openai.model, openai.fallbacks, openai.strength, openai.max_tokens,
  anthropic.base_url, anthropic.model, anthropic.fallbacks, anthropic.strength, anthropic.max_tokens,
  web.user_agent, web.timeout_seconds

Use subcommands to get, set, or list configuration values:
  toolbox config set <key> <value>    Set a configuration value
  toolbox config get <key>            Get a configuration value
  toolbox config list                 List all configuration values

Examples:
  toolbox config set completion.provider openai
  toolbox config set openai.fallbacks gpt-4-turbo,gpt-4
  toolbox config get anthropic.model
  toolbox config list`

const configShortDesc string = "Manage persistent toolbox configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}
