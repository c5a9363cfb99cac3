// Package authcmder provides the auth command for storing provider API keys.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/toolbox/pkg/cliui"
	"github.com/papercomputeco/toolbox/pkg/credentials"
)

const authLongDesc string = `Store API keys for LLM providers.

Keys are stored in credentials.toml in the .toolbox/ directory and used by
toolbox serve and the code commands whenever the provider's environment
variable (OPENAI_API_KEY, ANTHROPIC_API_KEY) is unset.

Supported providers: openai, anthropic

Examples:
  toolbox auth openai                Prompt for an OpenAI API key
  toolbox auth anthropic             Prompt for an Anthropic API key
  toolbox auth --list                List stored keys and their sources
  toolbox auth --remove openai       Remove the stored OpenAI key
  echo $KEY | toolbox auth openai    Pipe the key from stdin`

const authShortDesc string = "Store API keys for LLM providers"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cliui.NewOutput(cmd.OutOrStdout())

			switch {
			case listFlag:
				return runList(out, configDir)
			case removeFlag != "":
				return runRemove(out, removeFlag, configDir)
			default:
				if len(args) == 0 {
					return fmt.Errorf("provider argument required\n\nSupported providers: %s",
						strings.Join(credentials.SupportedProviders(), ", "))
				}
				return runAuth(out, cmd.InOrStdin(), args[0], configDir)
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored keys")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove the stored key for a provider")

	return cmd
}

func normalizeProvider(provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !credentials.IsSupportedProvider(provider) {
		return "", fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s",
			provider, strings.Join(credentials.SupportedProviders(), ", "))
	}
	return provider, nil
}

func runAuth(out *cliui.Output, stdin io.Reader, provider, configDir string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}

	apiKey, err := readAPIKey(out, stdin, provider)
	if err != nil {
		return err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	store, err := credentials.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := store.SetKey(provider, apiKey); err != nil {
		return err
	}

	out.Printf("\n  %s Stored %s key %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(provider),
		cliui.DimStyle.Render("in "+store.GetTarget()),
	)

	if envVar := credentials.EnvVarForProvider(provider); os.Getenv(envVar) != "" {
		out.Printf("  %s %s is set and takes precedence over the stored key.\n",
			cliui.DimStyle.Render("!"), envVar)
	}

	out.Printf("\n")
	return nil
}

func runList(out *cliui.Output, configDir string) error {
	store, err := credentials.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	out.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Provider keys"))
	for _, p := range credentials.SupportedProviders() {
		key, source, err := store.Lookup(p)
		if err != nil {
			return err
		}

		if source == credentials.SourceNone {
			out.Printf("  %s  %s  %s\n",
				cliui.FailMark,
				cliui.KeyStyle.Render(cliui.PadRight(p, 10)),
				cliui.DimStyle.Render("not configured"),
			)
			continue
		}

		out.Printf("  %s  %s  %s  %s\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(cliui.PadRight(p, 10)),
			cliui.ValueStyle.Render(credentials.Mask(key)),
			cliui.DimStyle.Render("from "+string(source)),
		)
	}
	out.Printf("\n")

	return nil
}

func runRemove(out *cliui.Output, provider, configDir string) error {
	provider, err := normalizeProvider(provider)
	if err != nil {
		return err
	}

	store, err := credentials.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := store.RemoveKey(provider); err != nil {
		return err
	}

	out.Printf("\n  %s Removed %s key.\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(provider))

	return nil
}

// readAPIKey reads a key from stdin. Piped input is read up to the first
// newline; a terminal gets a hidden prompt.
func readAPIKey(out *cliui.Output, stdin io.Reader, provider string) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out.Printf("Enter API key for %s (%s): ", provider, credentials.EnvVarForProvider(provider))

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		out.Printf("\n")
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
