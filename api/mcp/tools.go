package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/toolbox/pkg/codetools"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
	"github.com/papercomputeco/toolbox/pkg/web"
)

var (
	generateToolName    = "generate"
	generateDescription = "Generate a completion from an LLM provider with configurable reasoning style, response format, and reasoning strength. Falls back to alternate models when the default model is unavailable."

	analyzeToolName    = "code_analyze"
	analyzeDescription = "Analyze source code for quality, issues, performance, and security, optionally focused on one area."

	documentToolName    = "code_document"
	documentDescription = "Generate documentation comments for source code in a given style."

	improveToolName    = "code_improve"
	improveDescription = "Suggest concrete improvements for source code, optionally focused on given areas."

	requestToolName    = "web_request"
	requestDescription = "Make an HTTP request and return the status, headers, and decoded body."

	scrapeToolName    = "web_scrape"
	scrapeDescription = "Fetch an HTML page and extract its title, the text matched by CSS selectors, and optionally its links."
)

func dispatch(provider, model, reasoningType, responseFormat, strength string) codetools.Dispatch {
	return codetools.Dispatch{
		Provider:          provider,
		Model:             model,
		ReasoningType:     llm.ReasoningType(reasoningType),
		ResponseFormat:    llm.ResponseFormat(responseFormat),
		ReasoningStrength: llm.Strength(strength),
	}
}

// GenerateInput represents the input arguments for the generate tool.
type GenerateInput struct {
	Prompt            string   `json:"prompt" jsonschema:"the user prompt"`
	SystemPrompt      string   `json:"systemPrompt,omitempty" jsonschema:"base system prompt"`
	Temperature       *float64 `json:"temperature,omitempty" jsonschema:"sampling temperature; overrides the strength default"`
	MaxTokens         *int     `json:"maxTokens,omitempty" jsonschema:"maximum output tokens"`
	Provider          string   `json:"provider,omitempty" jsonschema:"LLM provider: openai or anthropic"`
	Model             string   `json:"model,omitempty" jsonschema:"explicit model; disables fallback"`
	ReasoningType     string   `json:"reasoningType,omitempty" jsonschema:"auto, step_by_step, chain_of_thought, analytical, critical, or creative"`
	ResponseFormat    string   `json:"responseFormat,omitempty" jsonschema:"text, markdown, json, bullet_points, or concise"`
	ReasoningStrength string   `json:"reasoningStrength,omitempty" jsonschema:"low, medium, or high"`
}

func (in GenerateInput) dispatch() codetools.Dispatch {
	return dispatch(in.Provider, in.Model, in.ReasoningType, in.ResponseFormat, in.ReasoningStrength)
}

// AnalyzeInput represents the input arguments for the code_analyze tool.
type AnalyzeInput struct {
	Code              string `json:"code" jsonschema:"the source code to analyze"`
	AnalysisType      string `json:"analysisType,omitempty" jsonschema:"general, performance, security, or another focus area"`
	Context           any    `json:"context,omitempty" jsonschema:"extra information about the code"`
	Provider          string `json:"provider,omitempty" jsonschema:"LLM provider: openai or anthropic"`
	Model             string `json:"model,omitempty" jsonschema:"explicit model; disables fallback"`
	ReasoningType     string `json:"reasoningType,omitempty" jsonschema:"auto, step_by_step, chain_of_thought, analytical, critical, or creative"`
	ResponseFormat    string `json:"responseFormat,omitempty" jsonschema:"text, markdown, json, bullet_points, or concise"`
	ReasoningStrength string `json:"reasoningStrength,omitempty" jsonschema:"low, medium, or high"`
}

func (in AnalyzeInput) dispatch() codetools.Dispatch {
	return dispatch(in.Provider, in.Model, in.ReasoningType, in.ResponseFormat, in.ReasoningStrength)
}

// DocumentInput represents the input arguments for the code_document tool.
type DocumentInput struct {
	Code              string `json:"code" jsonschema:"the source code to document"`
	DocStyle          string `json:"docStyle,omitempty" jsonschema:"documentation style (default: jsdoc)"`
	IncludeExamples   *bool  `json:"includeExamples,omitempty" jsonschema:"include usage examples (default: true)"`
	Provider          string `json:"provider,omitempty" jsonschema:"LLM provider: openai or anthropic"`
	Model             string `json:"model,omitempty" jsonschema:"explicit model; disables fallback"`
	ReasoningType     string `json:"reasoningType,omitempty" jsonschema:"auto, step_by_step, chain_of_thought, analytical, critical, or creative"`
	ResponseFormat    string `json:"responseFormat,omitempty" jsonschema:"text, markdown, json, bullet_points, or concise"`
	ReasoningStrength string `json:"reasoningStrength,omitempty" jsonschema:"low, medium, or high"`
}

func (in DocumentInput) dispatch() codetools.Dispatch {
	return dispatch(in.Provider, in.Model, in.ReasoningType, in.ResponseFormat, in.ReasoningStrength)
}

// ImproveInput represents the input arguments for the code_improve tool.
type ImproveInput struct {
	Code              string   `json:"code" jsonschema:"the source code to review"`
	FocusAreas        []string `json:"focusAreas,omitempty" jsonschema:"areas to focus the suggestions on"`
	Provider          string   `json:"provider,omitempty" jsonschema:"LLM provider: openai or anthropic"`
	Model             string   `json:"model,omitempty" jsonschema:"explicit model; disables fallback"`
	ReasoningType     string   `json:"reasoningType,omitempty" jsonschema:"auto, step_by_step, chain_of_thought, analytical, critical, or creative"`
	ResponseFormat    string   `json:"responseFormat,omitempty" jsonschema:"text, markdown, json, bullet_points, or concise"`
	ReasoningStrength string   `json:"reasoningStrength,omitempty" jsonschema:"low, medium, or high"`
}

func (in ImproveInput) dispatch() codetools.Dispatch {
	return dispatch(in.Provider, in.Model, in.ReasoningType, in.ResponseFormat, in.ReasoningStrength)
}

// RequestInput represents the input arguments for the web_request tool.
type RequestInput struct {
	URL     string            `json:"url" jsonschema:"the http or https URL to request"`
	Method  string            `json:"method,omitempty" jsonschema:"HTTP method (default: GET)"`
	Params  map[string]any    `json:"params,omitempty" jsonschema:"query string parameters"`
	Data    any               `json:"data,omitempty" jsonschema:"JSON request body"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"request headers"`
	Timeout float64           `json:"timeout,omitempty" jsonschema:"timeout in seconds (default: 30)"`
}

// ScrapeInput represents the input arguments for the web_scrape tool.
type ScrapeInput struct {
	URL          string   `json:"url" jsonschema:"the page URL"`
	Selectors    []string `json:"selectors,omitempty" jsonschema:"CSS selectors to extract; the body text is returned when empty"`
	ExtractLinks bool     `json:"extractLinks,omitempty" jsonschema:"also return the page's links"`
}

func (s *Server) handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, llm.CompletionResult, error) {
	d := input.dispatch()
	res := s.config.Toolkit.Generate(ctx, toolkit.SurfaceMCP, llm.CompletionRequest{
		Prompt:            input.Prompt,
		SystemPrompt:      input.SystemPrompt,
		Temperature:       input.Temperature,
		MaxTokens:         input.MaxTokens,
		Provider:          d.Provider,
		Model:             d.Model,
		ReasoningType:     d.ReasoningType,
		ResponseFormat:    d.ResponseFormat,
		ReasoningStrength: d.ReasoningStrength,
	})
	return s.envelope(generateToolName, res.Success, res.Error), res, nil
}

func (s *Server) handleAnalyze(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, llm.CompletionResult, error) {
	if input.Code == "" {
		return errorResult("code is required"), llm.CompletionResult{}, nil
	}
	res := s.config.Toolkit.Analyze(ctx, toolkit.SurfaceMCP, codetools.AnalyzeOptions{
		Code:         input.Code,
		AnalysisType: input.AnalysisType,
		Context:      input.Context,
		Dispatch:     input.dispatch(),
	})
	return s.envelope(analyzeToolName, res.Success, res.Error), res, nil
}

func (s *Server) handleDocument(ctx context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, llm.CompletionResult, error) {
	if input.Code == "" {
		return errorResult("code is required"), llm.CompletionResult{}, nil
	}
	res := s.config.Toolkit.Document(ctx, toolkit.SurfaceMCP, codetools.DocumentOptions{
		Code:            input.Code,
		DocStyle:        input.DocStyle,
		IncludeExamples: input.IncludeExamples,
		Dispatch:        input.dispatch(),
	})
	return s.envelope(documentToolName, res.Success, res.Error), res, nil
}

func (s *Server) handleImprove(ctx context.Context, _ *mcp.CallToolRequest, input ImproveInput) (*mcp.CallToolResult, llm.CompletionResult, error) {
	if input.Code == "" {
		return errorResult("code is required"), llm.CompletionResult{}, nil
	}
	res := s.config.Toolkit.Improve(ctx, toolkit.SurfaceMCP, codetools.ImproveOptions{
		Code:       input.Code,
		FocusAreas: input.FocusAreas,
		Dispatch:   input.dispatch(),
	})
	return s.envelope(improveToolName, res.Success, res.Error), res, nil
}

func (s *Server) handleRequest(ctx context.Context, _ *mcp.CallToolRequest, input RequestInput) (*mcp.CallToolResult, web.Response, error) {
	if input.URL == "" {
		return errorResult("url is required"), web.Response{}, nil
	}

	opts := web.RequestOptions{
		Method:  input.Method,
		Params:  input.Params,
		Data:    input.Data,
		Headers: input.Headers,
	}
	if input.Timeout > 0 {
		opts.Timeout = time.Duration(input.Timeout * float64(time.Second))
	}

	res := s.config.Toolkit.Request(ctx, toolkit.SurfaceMCP, input.URL, opts)
	return s.envelope(requestToolName, res.Success, res.Error), res, nil
}

func (s *Server) handleScrape(ctx context.Context, _ *mcp.CallToolRequest, input ScrapeInput) (*mcp.CallToolResult, web.ScrapeResult, error) {
	if input.URL == "" {
		return errorResult("url is required"), web.ScrapeResult{}, nil
	}
	res := s.config.Toolkit.Scrape(ctx, toolkit.SurfaceMCP, input.URL, web.ScrapeOptions{
		Selectors:    input.Selectors,
		ExtractLinks: input.ExtractLinks,
	})
	return s.envelope(scrapeToolName, res.Success, res.Error), res, nil
}

// envelope returns nil for successful calls so the SDK fills the content
// from the structured output. Failed envelopes are flagged as tool errors.
func (s *Server) envelope(tool string, success bool, errMsg string) *mcp.CallToolResult {
	if success {
		return nil
	}
	s.config.Logger.Debug("MCP tool call failed",
		"tool", tool,
		"error", errMsg,
	)
	return errorResult(errMsg)
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
