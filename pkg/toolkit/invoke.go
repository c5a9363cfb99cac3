package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/papercomputeco/toolbox/pkg/codetools"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/web"
)

// ErrUnknownTool is returned by Invoke for a tool name not in Names.
var ErrUnknownTool = errors.New("tool not found")

// InputError reports an invocation whose input could not be used.
type InputError struct {
	Tool    string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

// Invocation is the generic input accepted by every tool. Which fields
// matter depends on the tool; Context carries the tool's options.
type Invocation struct {
	Prompt  string         `json:"prompt,omitempty"`
	Code    string         `json:"code,omitempty"`
	URL     string         `json:"url,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// requestContext is the wire form of web_request options.
type requestContext struct {
	web.RequestOptions

	// Timeout is in seconds.
	Timeout float64 `json:"timeout,omitempty"`
}

// monitorContext is the wire form of web_monitor options.
type monitorContext struct {
	// Interval is in seconds.
	Interval    float64 `json:"interval,omitempty"`
	MaxAttempts int     `json:"maxAttempts,omitempty"`
}

type apiAnalyzeContext struct {
	Data   any            `json:"data,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// Invoke runs the named tool with a generic input and returns its envelope.
// It returns ErrUnknownTool for an unknown name and an *InputError when the
// input is missing a required field or its context does not decode.
func (t *Toolkit) Invoke(ctx context.Context, surface, tool string, in Invocation) (any, error) {
	if !slices.Contains(Names(), tool) {
		return nil, ErrUnknownTool
	}

	switch tool {
	case ToolGenerate:
		var req llm.CompletionRequest
		if err := decodeContext(tool, in.Context, &req); err != nil {
			return nil, err
		}
		if in.Prompt != "" {
			req.Prompt = in.Prompt
		}
		if req.Prompt == "" {
			return nil, &InputError{Tool: tool, Message: "prompt is required"}
		}
		return t.Generate(ctx, surface, req), nil

	case ToolCodeAnalyze:
		var opts codetools.AnalyzeOptions
		if err := decodeCode(tool, in, &opts, &opts.Code); err != nil {
			return nil, err
		}
		return t.Analyze(ctx, surface, opts), nil

	case ToolCodeDocument:
		var opts codetools.DocumentOptions
		if err := decodeCode(tool, in, &opts, &opts.Code); err != nil {
			return nil, err
		}
		return t.Document(ctx, surface, opts), nil

	case ToolCodeImprove:
		var opts codetools.ImproveOptions
		if err := decodeCode(tool, in, &opts, &opts.Code); err != nil {
			return nil, err
		}
		return t.Improve(ctx, surface, opts), nil

	case ToolWebRequest:
		var rc requestContext
		if err := decodeURL(tool, in, &rc); err != nil {
			return nil, err
		}
		opts := rc.RequestOptions
		opts.Timeout = seconds(rc.Timeout)
		return t.Request(ctx, surface, in.URL, opts), nil

	case ToolWebScrape:
		var opts web.ScrapeOptions
		if err := decodeURL(tool, in, &opts); err != nil {
			return nil, err
		}
		return t.Scrape(ctx, surface, in.URL, opts), nil

	case ToolWebMonitor:
		var mc monitorContext
		if err := decodeURL(tool, in, &mc); err != nil {
			return nil, err
		}
		return t.Monitor(ctx, surface, in.URL, web.MonitorOptions{
			Interval:    seconds(mc.Interval),
			MaxAttempts: mc.MaxAttempts,
		}), nil

	default: // ToolAPIAnalyze
		var ac apiAnalyzeContext
		if err := decodeContext(tool, in.Context, &ac); err != nil {
			return nil, err
		}
		if ac.Data == nil && in.URL == "" {
			return nil, &InputError{Tool: tool, Message: "data or url is required"}
		}
		return t.AnalyzeAPI(ctx, surface, in.URL, ac.Data, ac.Schema), nil
	}
}

// decodeContext re-encodes the loosely typed context map into dst.
func decodeContext(tool string, src map[string]any, dst any) error {
	if len(src) == 0 {
		return nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return &InputError{Tool: tool, Message: err.Error()}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &InputError{Tool: tool, Message: "invalid context: " + err.Error()}
	}
	return nil
}

func decodeCode(tool string, in Invocation, dst any, code *string) error {
	if err := decodeContext(tool, in.Context, dst); err != nil {
		return err
	}
	if in.Code != "" {
		*code = in.Code
	}
	if *code == "" {
		return &InputError{Tool: tool, Message: "code is required"}
	}
	return nil
}

func decodeURL(tool string, in Invocation, dst any) error {
	if in.URL == "" {
		return &InputError{Tool: tool, Message: "url is required"}
	}
	return decodeContext(tool, in.Context, dst)
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
