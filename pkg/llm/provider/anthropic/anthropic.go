// Package anthropic implements the completion provider adapter for the
// Anthropic Messages API using the official SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

const (
	name = llm.ProviderAnthropic

	// defaultMaxTokens is used when the request leaves max_tokens unset.
	// The Messages API requires it.
	defaultMaxTokens = 4096

	// defaultMaxRetries is the number of automatic SDK retries on transient
	// errors (429, 5xx). Model errors are never retried by the SDK.
	defaultMaxRetries = 2
)

// Provider implements provider.Provider using the official Anthropic SDK.
type Provider struct {
	client     sdk.Client
	apiKey     string
	maxRetries int
}

// Option configures a Provider.
type Option func(*config)

type config struct {
	apiKey     string
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

// WithAPIKey sets the API key. If not provided, the provider reads
// ANTHROPIC_API_KEY from the environment.
func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = key
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithMaxRetries sets the maximum number of SDK retries for transient errors.
// Negative values are ignored.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// New creates an Anthropic provider. A missing API key is not an error here:
// it surfaces as an auth failure when Complete is called.
func New(opts ...Option) *Provider {
	cfg := config{maxRetries: defaultMaxRetries}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.apiKey == "" {
		cfg.apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Provider{
		client:     sdk.NewClient(clientOpts...),
		apiKey:     cfg.apiKey,
		maxRetries: cfg.maxRetries,
	}
}

func (p *Provider) Name() string {
	return name
}

// MaxRetries returns the configured SDK retry count.
func (p *Provider) MaxRetries() int {
	return p.maxRetries
}

// Complete sends a completion request to the Anthropic Messages API.
func (p *Provider) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, &llm.ProviderError{
			Kind:     llm.ErrAuth,
			Provider: name,
			Model:    req.Model,
			Message:  "anthropic: missing API key; set ANTHROPIC_API_KEY",
		}
	}

	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = int64(*req.MaxTokens)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxTokens,
	}

	for _, msg := range req.Messages {
		block := sdk.NewTextBlock(msg.GetText())
		if msg.Role == llm.RoleAssistant {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(block))
		}
	}

	if req.System != "" {
		params.System = []sdk.TextBlockParam{
			{Text: req.System},
		}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = sdk.Float(*req.TopP)
	}
	if req.TopK != nil {
		params.TopK = sdk.Int(int64(*req.TopK))
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	var reqOpts []option.RequestOption
	for k, v := range req.Extra {
		if k == "model" || k == "messages" {
			continue
		}
		reqOpts = append(reqOpts, option.WithJSONSet(k, v))
	}

	msg, err := p.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		return nil, classifyError(req.Model, err)
	}

	resp := &llm.ChatResponse{
		Model:      string(msg.Model),
		Message:    llm.Message{Role: llm.RoleAssistant},
		StopReason: string(msg.StopReason),
		Usage: &llm.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(sdk.TextBlock); ok {
			resp.Message.Content = append(resp.Message.Content, llm.ContentBlock{Type: "text", Text: variant.Text})
		}
	}

	return resp, nil
}

// classifyError maps SDK errors onto provider error kinds. Anthropic answers
// unknown models with 404 not_found_error; a 400 that names the model field
// is treated the same way.
func classifyError(model string, err error) *llm.ProviderError {
	pe := &llm.ProviderError{
		Kind:     llm.ErrNetwork,
		Provider: name,
		Model:    model,
		Message:  err.Error(),
		Err:      err,
	}

	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return pe
	}

	pe.StatusCode = apiErr.StatusCode
	pe.Kind = llm.KindFromStatus(apiErr.StatusCode)
	if apiErr.StatusCode == http.StatusBadRequest && namesModel(apiErr.RawJSON()) {
		pe.Kind = llm.ErrModelUnavailable
	}

	return pe
}

// errorBody is the Messages API error envelope.
type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// namesModel reports whether an error body's message is about the model
// field, e.g. "model: claude-nope".
func namesModel(raw string) bool {
	var body errorBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(body.Error.Message), "model:")
}
