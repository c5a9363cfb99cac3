// Package provider defines the completion provider boundary and constructs
// the vendor adapters behind it.
package provider

import (
	"context"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

// Provider is a completion provider adapter. Each implementation wraps one
// vendor API and exposes "given a prompt and parameters, return text or
// fail".
type Provider interface {
	// Name returns the canonical provider name (e.g., "anthropic", "openai")
	Name() string

	// Complete dispatches a fully resolved request. Every returned error is
	// a *llm.ProviderError whose Kind tells the caller whether a different
	// model might succeed.
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}
