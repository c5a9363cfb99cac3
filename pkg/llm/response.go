package llm

import "time"

// ChatResponse is the provider-agnostic response returned by a completion
// provider adapter.
type ChatResponse struct {
	// Model that generated the response
	Model string `json:"model"`

	// Response timestamp
	CreatedAt time.Time `json:"created_at,omitzero"`

	// The assistant's response message
	Message Message `json:"message"`

	// Stop reason (e.g., "stop", "length", "end_turn")
	StopReason string `json:"stop_reason,omitempty"`

	// Token usage
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// CompletionResult is the uniform envelope returned for every completion
// call. Exactly one of Text and Error is set, gated by Success.
type CompletionResult struct {
	Success  bool           `json:"success"`
	Text     string         `json:"text,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata echoes what was dispatched (on success) or what was asked
// for (on failure).
type ResultMetadata struct {
	Provider          string         `json:"provider"`
	Model             string         `json:"model,omitempty"`
	ReasoningType     ReasoningType  `json:"reasoningType,omitempty"`
	ResponseFormat    ResponseFormat `json:"responseFormat,omitempty"`
	ReasoningStrength Strength       `json:"reasoningStrength,omitempty"`
	Timestamp         string         `json:"timestamp"`

	// Attempts is the number of provider calls made, including fallbacks.
	Attempts int `json:"attempts,omitempty"`
}
