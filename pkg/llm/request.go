package llm

// CompletionRequest is a caller's request for a single completion. Every
// optional field is resolved to a provider default before dispatch, so the
// zero value of each is meaningful ("use the default").
type CompletionRequest struct {
	// Prompt is the user message sent to the model.
	Prompt string `json:"prompt"`

	// SystemPrompt is the base system prompt, before reasoning and format
	// instructions are appended.
	SystemPrompt string `json:"systemPrompt,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`

	// Provider selects the vendor (e.g., "openai", "anthropic").
	Provider string `json:"provider,omitempty"`

	// Model pins an explicit model. A pinned model is never substituted by
	// the fallback chain.
	Model string `json:"model,omitempty"`

	ReasoningType     ReasoningType  `json:"reasoningType,omitempty"`
	ResponseFormat    ResponseFormat `json:"responseFormat,omitempty"`
	ReasoningStrength Strength       `json:"reasoningStrength,omitempty"`

	// ExtraParams are forwarded verbatim into the vendor request body.
	ExtraParams map[string]any `json:"extraParams,omitempty"`
}

// ChatRequest is the provider-agnostic request handed to a completion
// provider adapter once every default has been resolved.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o", "claude-3-5-sonnet-20241022")
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// System prompt (some providers handle this separately from messages)
	System string `json:"system,omitempty"`

	// Generation parameters (unified across providers)
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	TopK             *int     `json:"top_k,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`

	// Provider-specific fields that don't map to common parameters
	Extra map[string]any `json:"extra,omitempty"`
}

// UserPrompt returns the text of the last user message, or "" if none.
func (r *ChatRequest) UserPrompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].GetText()
		}
	}
	return ""
}
