// Package openai implements the completion provider adapter for OpenAI's
// Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

const (
	name = llm.ProviderOpenAI

	defaultBaseURL = "https://api.openai.com"

	// LLM requests can be slow, especially for long completions
	defaultTimeout = 5 * time.Minute

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 8 * 1024
)

// Provider implements provider.Provider over plain HTTP.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithAPIKey sets the API key. If not provided, OPENAI_API_KEY is read from
// the environment.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithBaseURL overrides the API base URL. If not provided, OPENAI_BASE_URL
// is read from the environment, then https://api.openai.com is used.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// New creates an OpenAI provider. A missing API key is not an error here:
// it surfaces as an auth failure when Complete is called.
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, o := range opts {
		o(p)
	}

	if p.apiKey == "" {
		p.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if p.baseURL == "" {
		p.baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	p.baseURL = strings.TrimRight(p.baseURL, "/")

	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return p
}

func (p *Provider) Name() string {
	return name
}

func (p *Provider) chatCompletionsURL() string {
	if strings.HasSuffix(p.baseURL, "/v1") {
		return p.baseURL + "/chat/completions"
	}
	return p.baseURL + "/v1/chat/completions"
}

// Complete sends a chat completion request.
func (p *Provider) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, &llm.ProviderError{
			Kind:     llm.ErrAuth,
			Provider: name,
			Model:    req.Model,
			Message:  "openai: missing API key; set OPENAI_API_KEY",
		}
	}

	body, err := encodeRequest(req)
	if err != nil {
		return nil, &llm.ProviderError{
			Kind:     llm.ErrInvalidRequest,
			Provider: name,
			Model:    req.Model,
			Message:  fmt.Sprintf("openai: encoding request: %v", err),
			Err:      err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatCompletionsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, &llm.ProviderError{
			Kind:     llm.ErrInvalidRequest,
			Provider: name,
			Model:    req.Model,
			Message:  err.Error(),
			Err:      err,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.ProviderError{
			Kind:     llm.ErrNetwork,
			Provider: name,
			Model:    req.Model,
			Message:  err.Error(),
			Err:      err,
		}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, classifyError(req.Model, httpResp.StatusCode, raw)
	}

	var resp openaiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, &llm.ProviderError{
			Kind:       llm.ErrUpstream,
			Provider:   name,
			Model:      req.Model,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("openai: decoding response: %v", err),
			Err:        err,
		}
	}

	return decodeResponse(&resp), nil
}

// encodeRequest builds the wire body. Extra params are merged in last but
// never replace the model or the messages.
func encodeRequest(req *llm.ChatRequest) ([]byte, error) {
	wire := openaiRequest{
		Model:            req.Model,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		Stop:             req.Stop,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}

	if req.System != "" {
		system := req.System
		wire.Messages = append(wire.Messages, openaiMessage{Role: llm.RoleSystem, Content: &system})
	}
	for _, msg := range req.Messages {
		text := msg.GetText()
		wire.Messages = append(wire.Messages, openaiMessage{Role: msg.Role, Content: &text})
	}

	if len(req.Extra) == 0 {
		return json.Marshal(wire)
	}

	base, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range req.Extra {
		if k == "model" || k == "messages" {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

func decodeResponse(resp *openaiResponse) *llm.ChatResponse {
	result := &llm.ChatResponse{
		Model:   resp.Model,
		Message: llm.Message{Role: llm.RoleAssistant},
	}
	if resp.Created > 0 {
		result.CreatedAt = time.Unix(resp.Created, 0)
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Message.Content != nil {
			result.Message.Content = []llm.ContentBlock{{Type: "text", Text: *choice.Message.Content}}
		}
		result.StopReason = choice.FinishReason
	}

	if resp.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return result
}

// classifyError turns a non-2xx response into a ProviderError. OpenAI
// reports unknown models as 404 with code "model_not_found", and some
// gateways answer 400 with param "model" instead.
func classifyError(model string, status int, raw []byte) *llm.ProviderError {
	pe := &llm.ProviderError{
		Kind:       llm.KindFromStatus(status),
		Provider:   name,
		Model:      model,
		StatusCode: status,
		Message:    fmt.Sprintf("openai: http status %d: %s", status, strings.TrimSpace(string(raw))),
	}

	var body openaiErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Message == "" {
		return pe
	}

	pe.Message = body.Error.Message
	if body.Error.Code != nil && *body.Error.Code == "model_not_found" {
		pe.Kind = llm.ErrModelUnavailable
	}
	if status == http.StatusBadRequest && body.Error.Param != nil && *body.Error.Param == "model" {
		pe.Kind = llm.ErrModelUnavailable
	}

	return pe
}
