package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

// MockProvider is a deterministic completion provider. It records every
// request it receives and answers from Responses or Errors keyed by model.
type MockProvider struct {
	ProviderName string

	// Responses maps a model to the text returned for it.
	Responses map[string]string

	// Errors maps a model to the error returned for it. Errors take
	// precedence over Responses.
	Errors map[string]error

	// DefaultText is returned for models with no entry in either map.
	DefaultText string

	mu    sync.Mutex
	calls []*llm.ChatRequest
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Responses:    make(map[string]string),
		Errors:       make(map[string]error),
		DefaultText:  "ok",
	}
}

func (m *MockProvider) Name() string {
	return m.ProviderName
}

func (m *MockProvider) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err, ok := m.Errors[req.Model]; ok {
		return nil, err
	}

	text := m.DefaultText
	if t, ok := m.Responses[req.Model]; ok {
		text = t
	}

	return &llm.ChatResponse{
		Model:   req.Model,
		Message: llm.NewTextMessage(llm.RoleAssistant, text),
	}, nil
}

// Calls returns the requests received so far, in order.
func (m *MockProvider) Calls() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*llm.ChatRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// Models returns the model of every request received so far, in order.
func (m *MockProvider) Models() []string {
	calls := m.Calls()
	models := make([]string, len(calls))
	for i, c := range calls {
		models[i] = c.Model
	}
	return models
}

// ModelNotFound builds the error an adapter returns for an unknown model.
func ModelNotFound(provider, model string) error {
	return &llm.ProviderError{
		Kind:       llm.ErrModelUnavailable,
		Provider:   provider,
		Model:      model,
		StatusCode: 404,
		Message:    "model not found: " + model,
	}
}
