package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/pkg/cliui"
	"github.com/papercomputeco/toolbox/pkg/config"
)

const listLongDesc string = `List all configuration values, grouped by TOML section.

Values come from the config.toml file in the .toolbox/ directory, or the
built-in defaults when no file exists.

Examples:
  toolbox config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(w io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out := cliui.NewOutput(w)
	printTarget(out, cfger.GetTarget())

	keys := config.ValidConfigKeys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	section := ""
	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				out.Printf("\n")
			}
			section = s
			out.Printf("  %s\n", cliui.HeaderStyle.Render("["+section+"]"))
		}

		rendered := cliui.DimStyle.Render("<not set>")
		if value != "" {
			rendered = cliui.ValueStyle.Render(fmt.Sprintf("%q", value))
		}
		out.Printf("    %s %s\n", cliui.PadRight(cliui.KeyStyle.Render(key), width), rendered)
	}
	out.Printf("\n")

	return nil
}
