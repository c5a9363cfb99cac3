package codecmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/pkg/codetools"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

const analyzeLongDesc string = `Analyze code for quality, bugs, and design issues.

Examples:
  toolbox code analyze main.go
  toolbox code analyze --type security --strength high handler.go
  cat util.py | toolbox code analyze --context '{"framework":"django"}'`

func newAnalyzeCmd() *cobra.Command {
	cmder := &codeCommander{}
	var (
		analysisType string
		contextJSON  string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze code",
		Long:  analyzeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra any
			if contextJSON != "" {
				if err := json.Unmarshal([]byte(contextJSON), &extra); err != nil {
					return fmt.Errorf("invalid --context JSON: %w", err)
				}
			}

			return cmder.run(cmd, args, "Analyzing code", func(ctx context.Context, kit *toolkit.Toolkit, code string) llm.CompletionResult {
				return kit.Analyze(ctx, toolkit.SurfaceCLI, codetools.AnalyzeOptions{
					Code:         code,
					AnalysisType: analysisType,
					Context:      extra,
					Dispatch:     cmder.dispatch(),
				})
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().StringVar(&analysisType, "type", "", "Analysis focus (comprehensive, security, performance, ...)")
	cmd.Flags().StringVar(&contextJSON, "context", "", "Extra context as a JSON value")

	return cmd
}

const documentLongDesc string = `Generate documentation for code.

Examples:
  toolbox code document lib.go
  toolbox code document --style google --no-examples client.py`

func newDocumentCmd() *cobra.Command {
	cmder := &codeCommander{}
	var (
		docStyle   string
		noExamples bool
	)

	cmd := &cobra.Command{
		Use:   "document [file]",
		Short: "Generate documentation",
		Long:  documentLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args, "Documenting code", func(ctx context.Context, kit *toolkit.Toolkit, code string) llm.CompletionResult {
				return kit.Document(ctx, toolkit.SurfaceCLI, codetools.DocumentOptions{
					Code:            code,
					DocStyle:        docStyle,
					IncludeExamples: utils.Ptr(!noExamples),
					Dispatch:        cmder.dispatch(),
				})
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().StringVar(&docStyle, "style", "", "Documentation style (comprehensive, google, numpy, ...)")
	cmd.Flags().BoolVar(&noExamples, "no-examples", false, "Leave usage examples out")

	return cmd
}

const improveLongDesc string = `Suggest improvements to code.

Examples:
  toolbox code improve worker.go
  toolbox code improve --focus performance --focus readability cache.go`

func newImproveCmd() *cobra.Command {
	cmder := &codeCommander{}
	var focus []string

	cmd := &cobra.Command{
		Use:   "improve [file]",
		Short: "Suggest improvements",
		Long:  improveLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args, "Improving code", func(ctx context.Context, kit *toolkit.Toolkit, code string) llm.CompletionResult {
				return kit.Improve(ctx, toolkit.SurfaceCLI, codetools.ImproveOptions{
					Code:       code,
					FocusAreas: focus,
					Dispatch:   cmder.dispatch(),
				})
			})
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().StringSliceVar(&focus, "focus", nil, "Focus areas; repeat or comma separate")

	return cmd
}
