// Package toolkit runs the named tools behind every surface (HTTP, MCP, CLI)
// and records one ledger entry per call.
package toolkit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/toolbox/pkg/codetools"
	"github.com/papercomputeco/toolbox/pkg/completion"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/storage"
	"github.com/papercomputeco/toolbox/pkg/utils"
	"github.com/papercomputeco/toolbox/pkg/web"
)

// Tool names.
const (
	ToolGenerate     = "llm_code_generate"
	ToolCodeAnalyze  = "code_analyze"
	ToolCodeDocument = "code_document"
	ToolCodeImprove  = "code_improve"
	ToolWebRequest   = "web_request"
	ToolWebScrape    = "web_scrape"
	ToolWebMonitor   = "web_monitor"
	ToolAPIAnalyze   = "api_analyze"
)

const defaultGenProvider = llm.ProviderOpenAI

// Surfaces a call can arrive through.
const (
	SurfaceAPI = "api"
	SurfaceMCP = "mcp"
	SurfaceCLI = "cli"
)

// Names lists every tool in a stable order.
func Names() []string {
	return []string{
		ToolGenerate,
		ToolCodeAnalyze,
		ToolCodeDocument,
		ToolCodeImprove,
		ToolWebRequest,
		ToolWebScrape,
		ToolWebMonitor,
		ToolAPIAnalyze,
	}
}

// Recorder receives a ledger record after each call. *worker.Pool
// satisfies it.
type Recorder interface {
	Record(surface string, rec *storage.CallRecord) bool
}

// Config configures a Toolkit.
type Config struct {
	Completion *completion.Service
	Web        *web.Client

	// Recorder is optional. Without one, calls are not recorded.
	Recorder Recorder

	// GenerateProvider is the default provider for llm_code_generate.
	// Defaults to openai.
	GenerateProvider string

	// Now is the clock for call records. Nil uses time.Now.
	Now func() time.Time
}

// Toolkit runs tools and records their outcomes.
type Toolkit struct {
	completion *completion.Service
	code       *codetools.Tools
	web        *web.Client
	recorder   Recorder

	generateProvider string
	now              func() time.Time
	logger           *slog.Logger
}

// New creates a Toolkit.
func New(cfg Config, logger *slog.Logger) (*Toolkit, error) {
	if cfg.Completion == nil {
		return nil, errors.New("completion service is required")
	}
	if cfg.Web == nil {
		return nil, errors.New("web client is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	t := &Toolkit{
		completion:       cfg.Completion,
		code:             codetools.New(cfg.Completion),
		web:              cfg.Web,
		recorder:         cfg.Recorder,
		generateProvider: cfg.GenerateProvider,
		now:              cfg.Now,
		logger:           logger,
	}
	if t.generateProvider == "" {
		t.generateProvider = defaultGenProvider
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t, nil
}

// Providers returns the names of the configured completion providers.
func (t *Toolkit) Providers() []string {
	return t.completion.Providers()
}

// Generate runs a raw completion. An empty provider uses the generate
// default rather than the service default.
func (t *Toolkit) Generate(ctx context.Context, surface string, req llm.CompletionRequest) llm.CompletionResult {
	if req.Provider == "" {
		req.Provider = t.generateProvider
	}
	start := t.now()
	res := t.completion.Generate(ctx, req)
	t.recordCompletion(surface, ToolGenerate, start, res)
	return res
}

// Analyze runs the code analysis tool.
func (t *Toolkit) Analyze(ctx context.Context, surface string, opts codetools.AnalyzeOptions) llm.CompletionResult {
	start := t.now()
	res := t.code.Analyze(ctx, opts)
	t.recordCompletion(surface, ToolCodeAnalyze, start, res)
	return res
}

// Document runs the documentation tool.
func (t *Toolkit) Document(ctx context.Context, surface string, opts codetools.DocumentOptions) llm.CompletionResult {
	start := t.now()
	res := t.code.Document(ctx, opts)
	t.recordCompletion(surface, ToolCodeDocument, start, res)
	return res
}

// Improve runs the improvement suggestion tool.
func (t *Toolkit) Improve(ctx context.Context, surface string, opts codetools.ImproveOptions) llm.CompletionResult {
	start := t.now()
	res := t.code.Improve(ctx, opts)
	t.recordCompletion(surface, ToolCodeImprove, start, res)
	return res
}

// Request runs a plain web request.
func (t *Toolkit) Request(ctx context.Context, surface, url string, opts web.RequestOptions) web.Response {
	start := t.now()
	res := t.web.Request(ctx, url, opts)
	t.recordWeb(surface, ToolWebRequest, url, start, res.Success, res.Error)
	return res
}

// Scrape scrapes an HTML page.
func (t *Toolkit) Scrape(ctx context.Context, surface, url string, opts web.ScrapeOptions) web.ScrapeResult {
	start := t.now()
	res := t.web.Scrape(ctx, url, opts)
	t.recordWeb(surface, ToolWebScrape, url, start, res.Success, res.Error)
	return res
}

// Monitor probes an endpoint repeatedly.
func (t *Toolkit) Monitor(ctx context.Context, surface, url string, opts web.MonitorOptions) web.MonitorResult {
	start := t.now()
	res := t.web.Monitor(ctx, url, opts)
	t.recordWeb(surface, ToolWebMonitor, url, start, res.Success, res.Error)
	return res
}

// AnalyzeAPI describes the structure of data and validates it against an
// optional schema. When data is nil and url is set, the URL is fetched and
// its decoded body analyzed.
func (t *Toolkit) AnalyzeAPI(ctx context.Context, surface, url string, data any, schema map[string]any) web.Analysis {
	start := t.now()

	var res web.Analysis
	if data == nil && url != "" {
		resp := t.web.Request(ctx, url, web.RequestOptions{})
		if resp.Success {
			res = web.AnalyzeStructure(resp.Data, schema)
		} else {
			res = web.Analysis{Success: false, Error: resp.Error}
		}
	} else {
		res = web.AnalyzeStructure(data, schema)
	}

	t.recordWeb(surface, ToolAPIAnalyze, url, start, res.Success, res.Error)
	return res
}

func (t *Toolkit) recordCompletion(surface, tool string, start time.Time, res llm.CompletionResult) {
	t.record(surface, &storage.CallRecord{
		Tool:      tool,
		Provider:  res.Metadata.Provider,
		Model:     res.Metadata.Model,
		Success:   res.Success,
		Error:     res.Error,
		Attempts:  res.Metadata.Attempts,
		StartedAt: start,
	})
}

func (t *Toolkit) recordWeb(surface, tool, target string, start time.Time, success bool, errMsg string) {
	t.record(surface, &storage.CallRecord{
		Tool:      tool,
		Success:   success,
		Error:     errMsg,
		StartedAt: start,
		Target:    target,
	})
}

// maxRecordedError caps the vendor message kept in the ledger; the caller's
// envelope still carries it in full.
const maxRecordedError = 1024

func (t *Toolkit) record(surface string, rec *storage.CallRecord) {
	rec.ID = uuid.NewString()
	rec.Error = utils.Truncate(rec.Error, maxRecordedError)
	rec.DurationMs = t.now().Sub(rec.StartedAt).Milliseconds()
	rec.StartedAt = rec.StartedAt.UTC()

	t.logger.Debug("tool call finished",
		"tool", rec.Tool,
		"surface", surface,
		"success", rec.Success,
		"duration_ms", rec.DurationMs,
	)

	if t.recorder == nil {
		return
	}
	t.recorder.Record(surface, rec)
}
