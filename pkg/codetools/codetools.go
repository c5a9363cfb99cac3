// Package codetools builds task-specific prompts for code analysis,
// documentation, and review, and delegates them to the completion service.
// The code argument is treated as opaque text.
package codetools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

const (
	analyzeSystem  = "You are an expert code analyst. Provide clear, actionable insights."
	documentSystem = "You are an expert technical writer. Provide clear, comprehensive documentation."
	improveSystem  = "You are an expert code reviewer. Provide specific, actionable improvements."

	analyzeTemperature  = 0.3
	documentTemperature = 0.2
	improveTemperature  = 0.3

	// DefaultAnalysisType asks for a general analysis with no focus area.
	DefaultAnalysisType = "general"

	// DefaultDocStyle is the documentation comment style used when none is
	// given.
	DefaultDocStyle = "jsdoc"
)

// Generator runs a completion. *completion.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req llm.CompletionRequest) llm.CompletionResult
}

// Dispatch carries the completion selectors shared by every tool.
type Dispatch struct {
	Provider          string             `json:"provider,omitempty"`
	Model             string             `json:"model,omitempty"`
	ReasoningType     llm.ReasoningType  `json:"reasoningType,omitempty"`
	ResponseFormat    llm.ResponseFormat `json:"responseFormat,omitempty"`
	ReasoningStrength llm.Strength       `json:"reasoningStrength,omitempty"`
}

// AnalyzeOptions configures Analyze.
type AnalyzeOptions struct {
	Code         string `json:"code"`
	AnalysisType string `json:"analysisType,omitempty"`

	// Context is extra caller-supplied information, embedded as JSON.
	Context any `json:"context,omitempty"`

	Dispatch
}

// DocumentOptions configures Document.
type DocumentOptions struct {
	Code     string `json:"code"`
	DocStyle string `json:"docStyle,omitempty"`

	// IncludeExamples defaults to true when nil.
	IncludeExamples *bool `json:"includeExamples,omitempty"`

	Dispatch
}

// ImproveOptions configures Improve.
type ImproveOptions struct {
	Code       string   `json:"code"`
	FocusAreas []string `json:"focusAreas,omitempty"`

	Dispatch
}

// Tools is the code tool façade.
type Tools struct {
	gen Generator
}

// New creates the façade over gen.
func New(gen Generator) *Tools {
	return &Tools{gen: gen}
}

// Analyze asks for an overview, components, issues, and a best-practices
// assessment of the code.
func (t *Tools) Analyze(ctx context.Context, opts AnalyzeOptions) llm.CompletionResult {
	return t.gen.Generate(ctx, AnalyzeRequest(opts))
}

// Document asks for enhanced documentation of the code in the given style.
func (t *Tools) Document(ctx context.Context, opts DocumentOptions) llm.CompletionResult {
	return t.gen.Generate(ctx, DocumentRequest(opts))
}

// Improve asks for concrete improvement suggestions, optionally focused on
// the given areas.
func (t *Tools) Improve(ctx context.Context, opts ImproveOptions) llm.CompletionResult {
	return t.gen.Generate(ctx, ImproveRequest(opts))
}

// AnalyzeRequest builds the completion request Analyze dispatches.
func AnalyzeRequest(opts AnalyzeOptions) llm.CompletionRequest {
	analysisType := strings.TrimSpace(opts.AnalysisType)
	if analysisType == "" {
		analysisType = DefaultAnalysisType
	}

	var b strings.Builder
	b.WriteString("Please analyze the following code")
	if analysisType != DefaultAnalysisType {
		fmt.Fprintf(&b, " focusing on %s", analysisType)
	}
	b.WriteString(":\n\n")
	writeCode(&b, opts.Code)

	if ctx := encodeContext(opts.Context); ctx != "" {
		fmt.Fprintf(&b, "Additional context: %s\n\n", ctx)
	}

	b.WriteString("Please provide:\n")
	writeList(&b,
		"A brief overview",
		"Key components and their purposes",
		"Potential improvements or issues",
		"Best practices assessment",
	)

	return opts.Dispatch.request(b.String(), analyzeSystem, analyzeTemperature)
}

// DocumentRequest builds the completion request Document dispatches.
func DocumentRequest(opts DocumentOptions) llm.CompletionRequest {
	style := strings.TrimSpace(opts.DocStyle)
	if style == "" {
		style = DefaultDocStyle
	}
	includeExamples := opts.IncludeExamples == nil || *opts.IncludeExamples

	var b strings.Builder
	fmt.Fprintf(&b, "Please enhance the documentation for the following code using %s style:\n\n", style)
	writeCode(&b, opts.Code)

	if includeExamples {
		b.WriteString("Include practical examples for key functions.\n")
	}
	b.WriteString("Focus on:\n")
	writeList(&b,
		"Function/method descriptions",
		"Parameter documentation",
		"Return value documentation",
		"Type information",
		"Usage examples (if requested)",
	)

	return opts.Dispatch.request(b.String(), documentSystem, documentTemperature)
}

// ImproveRequest builds the completion request Improve dispatches.
func ImproveRequest(opts ImproveOptions) llm.CompletionRequest {
	var areas []string
	for _, a := range opts.FocusAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}

	var b strings.Builder
	b.WriteString("Please suggest improvements for the following code")
	if len(areas) > 0 {
		fmt.Fprintf(&b, " focusing on: %s", strings.Join(areas, ", "))
	}
	b.WriteString(":\n\n")
	writeCode(&b, opts.Code)

	b.WriteString("For each suggestion, provide:\n")
	writeList(&b,
		"Description of the improvement",
		"Rationale",
		"Example implementation (if applicable)",
		"Impact assessment",
	)

	return opts.Dispatch.request(b.String(), improveSystem, improveTemperature)
}

func (d Dispatch) request(prompt, system string, temperature float64) llm.CompletionRequest {
	return llm.CompletionRequest{
		Prompt:            prompt,
		SystemPrompt:      system,
		Temperature:       &temperature,
		Provider:          d.Provider,
		Model:             d.Model,
		ReasoningType:     d.ReasoningType,
		ResponseFormat:    d.ResponseFormat,
		ReasoningStrength: d.ReasoningStrength,
	}
}

func writeCode(b *strings.Builder, code string) {
	b.WriteString("```\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("```\n\n")
}

func writeList(b *strings.Builder, items ...string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

// encodeContext renders the caller's context as compact JSON. Strings are
// embedded as-is.
func encodeContext(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	if s := string(data); s != "null" && s != "{}" {
		return s
	}
	return ""
}
