// Package codecmder provides the code command for analyzing, documenting,
// and improving source files from the terminal.
package codecmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/cmd/toolbox/wiring"
	"github.com/papercomputeco/toolbox/pkg/cliui"
	"github.com/papercomputeco/toolbox/pkg/codetools"
	"github.com/papercomputeco/toolbox/pkg/config"
	"github.com/papercomputeco/toolbox/pkg/credentials"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
)

const codeLongDesc string = `Run the code tools against a source file.

Each subcommand reads the file named by its argument, or stdin when the
argument is "-" or omitted, and prints the model's answer:
  toolbox code analyze main.go            Review code quality and risks
  toolbox code document main.go           Generate documentation
  toolbox code improve main.go            Suggest concrete improvements

Provider API keys are read from OPENAI_API_KEY and ANTHROPIC_API_KEY.`

const codeShortDesc string = "Analyze, document, or improve code"

// codeFlags are the registry flags every code subcommand binds.
var codeFlags = []string{
	config.FlagProvider,
	config.FlagOpenAIBaseURL,
	config.FlagAnthropicURL,
	config.FlagSQLite,
	config.FlagPostgres,
}

// codeCommander holds the flags shared by the code subcommands.
type codeCommander struct {
	provider      string
	openAIBaseURL string
	anthropicURL  string
	sqlitePath    string
	postgresDSN   string

	model         string
	reasoningType string
	format        string
	strength      string
	jsonOut       bool
}

func NewCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: codeShortDesc,
		Long:  codeLongDesc,
	}

	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newDocumentCmd())
	cmd.AddCommand(newImproveCmd())

	return cmd
}

func (c *codeCommander) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &c.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagOpenAIBaseURL, &c.openAIBaseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagAnthropicURL, &c.anthropicURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &c.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &c.postgresDSN)

	cmd.Flags().StringVarP(&c.model, "model", "m", "", "Pin a model and disable fallback")
	cmd.Flags().StringVar(&c.reasoningType, "reasoning", "", "Reasoning style (auto, step_by_step, chain_of_thought, analytical, critical, creative)")
	cmd.Flags().StringVar(&c.format, "format", "", "Response format (text, markdown, json, bullet_points, concise)")
	cmd.Flags().StringVar(&c.strength, "strength", "", "Reasoning strength (low, medium, high)")
	cmd.Flags().BoolVar(&c.jsonOut, "json", false, "Print the raw result envelope as JSON")
}

// dispatch returns the selectors for a request. The provider is left to the
// resolver, which picks up --provider as the configured default.
func (c *codeCommander) dispatch() codetools.Dispatch {
	return codetools.Dispatch{
		Model:             c.model,
		ReasoningType:     llm.ReasoningType(c.reasoningType),
		ResponseFormat:    llm.ResponseFormat(c.format),
		ReasoningStrength: llm.Strength(c.strength),
	}
}

// run loads config, opens the toolkit, and renders the result of call.
func (c *codeCommander) run(cmd *cobra.Command, args []string, verb string, call func(ctx context.Context, kit *toolkit.Toolkit, code string) llm.CompletionResult) error {
	code, err := readSource(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := wiring.LoadConfig(cmd, configDir, codeFlags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	creds, err := credentials.NewStore(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	stack, err := wiring.Open(ctx, cfg, creds, wiring.CLILogger(cmd.ErrOrStderr(), debug))
	if err != nil {
		return err
	}
	defer stack.Close()

	var res llm.CompletionResult
	status := cliui.NewOutput(cmd.ErrOrStderr())
	_ = status.Step(verb, func() error {
		res = call(ctx, stack.Toolkit, code)
		if !res.Success {
			return errors.New(res.Error)
		}
		return nil
	})

	return render(cmd.OutOrStdout(), res, c.jsonOut)
}

// readSource reads the file named by args[0], or r when there is no
// argument or it is "-".
func readSource(r io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}

	code := string(data)
	if strings.TrimSpace(code) == "" {
		return "", errors.New("code is required")
	}
	return code, nil
}

func render(w io.Writer, res llm.CompletionResult, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if res.Success {
		out := cliui.NewOutput(w)
		out.Printf("\n%s\n", out.Markdown(res.Text))
		out.Printf("  %s\n\n", cliui.DimStyle.Render(describe(res.Metadata)))
	}

	if !res.Success {
		return errors.New(res.Error)
	}
	return nil
}

func describe(m llm.ResultMetadata) string {
	attempts := "1 attempt"
	if m.Attempts > 1 {
		attempts = fmt.Sprintf("%d attempts", m.Attempts)
	}
	return fmt.Sprintf("%s / %s / %s strength / %s", m.Provider, m.Model, m.ReasoningStrength, attempts)
}
