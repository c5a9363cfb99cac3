// Package completion resolves, dispatches, and normalizes LLM completion
// requests across vendors with model fallback.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/llm/provider"
)

// ErrEmptyPrompt is reported when a request carries no prompt.
var ErrEmptyPrompt = errors.New("prompt is required")

// Config configures a Service.
type Config struct {
	// Tables holds the strength tables, fallback chains, and instruction
	// maps. Nil uses DefaultTables.
	Tables *Tables

	// Providers are the vendor adapters, keyed by their Name().
	Providers []provider.Provider

	// Now is the clock used for result timestamps. Nil uses time.Now.
	Now func() time.Time
}

// Service is the single entry point for completions. It is safe for
// concurrent use: every field is read-only after New.
type Service struct {
	tables    *Tables
	providers map[string]provider.Provider

	resolver     *ParameterResolver
	augmenter    *PromptAugmenter
	orchestrator *Orchestrator
	normalizer   *Normalizer

	logger *slog.Logger
}

// New validates the tables and builds a Service.
func New(cfg Config, logger *slog.Logger) (*Service, error) {
	tables := cfg.Tables
	if tables == nil {
		tables = DefaultTables()
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid completion tables: %w", err)
	}
	tables = tables.Clone()

	providers := make(map[string]provider.Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p == nil {
			continue
		}
		providers[llm.NormalizeName(p.Name())] = p
	}

	return &Service{
		tables:       tables,
		providers:    providers,
		resolver:     NewParameterResolver(tables),
		augmenter:    NewPromptAugmenter(tables),
		orchestrator: NewOrchestrator(logger),
		normalizer:   NewNormalizer(cfg.Now),
		logger:       logger,
	}, nil
}

// Providers returns the names of the registered vendor adapters, sorted.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultProvider returns the provider used when a request names none.
func (s *Service) DefaultProvider() string {
	return s.tables.DefaultProvider
}

// Generate runs one completion. It never returns an error: every failure is
// reported inside the result envelope.
func (s *Service) Generate(ctx context.Context, req llm.CompletionRequest) llm.CompletionResult {
	params := s.resolver.Resolve(&req)
	reasoning := s.augmenter.ReasoningType(req.ReasoningType)
	format := s.augmenter.ResponseFormat(req.ResponseFormat)

	requested := llm.ResultMetadata{
		Provider:          params.Provider,
		Model:             req.Model,
		ReasoningType:     req.ReasoningType,
		ResponseFormat:    req.ResponseFormat,
		ReasoningStrength: req.ReasoningStrength,
	}
	if req.Provider != "" {
		requested.Provider = req.Provider
	}

	if req.Prompt == "" {
		return s.normalizer.Failure(ErrEmptyPrompt, requested)
	}

	prov, ok := s.providers[params.Provider]
	if !ok {
		return s.normalizer.Failure(
			fmt.Errorf("provider %q is not configured", params.Provider),
			requested,
		)
	}

	base := s.chatRequest(&req, params, reasoning, format)

	s.logger.Debug("dispatching completion",
		"provider", params.Provider,
		"chain", params.Chain,
		"pinned", params.Pinned,
		"strength", string(params.Strength),
		"reasoning_type", string(reasoning),
		"response_format", string(format),
	)

	outcome := s.orchestrator.Run(ctx, params.Chain, params.Pinned, func(ctx context.Context, model string) (*llm.ChatResponse, error) {
		r := base
		r.Model = model
		return prov.Complete(ctx, &r)
	})

	requested.Attempts = len(outcome.Tried)
	if !outcome.Succeeded() {
		if outcome.Err == nil {
			outcome.Err = fmt.Errorf("no model available for provider %q", params.Provider)
		}
		s.logger.Warn("completion failed",
			"provider", params.Provider,
			"model", outcome.Model,
			"attempts", len(outcome.Tried),
			"error", outcome.Err,
		)
		return s.normalizer.Failure(outcome.Err, requested)
	}

	return s.normalizer.Success(outcome.Response, llm.ResultMetadata{
		Provider:          params.Provider,
		Model:             outcome.Model,
		ReasoningType:     reasoning,
		ResponseFormat:    format,
		ReasoningStrength: params.Strength,
		Attempts:          len(outcome.Tried),
	})
}

// chatRequest builds the vendor-neutral request shared by every attempt.
// Only Model changes between attempts.
func (s *Service) chatRequest(req *llm.CompletionRequest, params Parameters, reasoning llm.ReasoningType, format llm.ResponseFormat) llm.ChatRequest {
	temperature := params.Temperature
	out := llm.ChatRequest{
		Messages:         []llm.Message{llm.NewTextMessage(llm.RoleUser, req.Prompt)},
		MaxTokens:        params.MaxTokens,
		Temperature:      &temperature,
		TopP:             params.Bundle.TopP,
		TopK:             params.Bundle.TopK,
		FrequencyPenalty: params.Bundle.FrequencyPenalty,
		PresencePenalty:  params.Bundle.PresencePenalty,
		Extra:            req.ExtraParams,
	}

	if system, ok := s.augmenter.Compose(req.SystemPrompt, reasoning, format); ok {
		out.System = system
	}

	return out
}
