package llm

import "strings"

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ReasoningType selects the reasoning-style instruction appended to the
// system prompt.
type ReasoningType string

const (
	ReasoningAuto           ReasoningType = "auto"
	ReasoningStepByStep     ReasoningType = "step_by_step"
	ReasoningChainOfThought ReasoningType = "chain_of_thought"
	ReasoningAnalytical     ReasoningType = "analytical"
	ReasoningCritical       ReasoningType = "critical"
	ReasoningCreative       ReasoningType = "creative"
)

// ResponseFormat selects the output-format instruction appended to the
// system prompt.
type ResponseFormat string

const (
	FormatText         ResponseFormat = "text"
	FormatMarkdown     ResponseFormat = "markdown"
	FormatJSON         ResponseFormat = "json"
	FormatBulletPoints ResponseFormat = "bullet_points"
	FormatConcise      ResponseFormat = "concise"
)

// Strength is a reasoning-strength level keyed into the per-provider
// sampling tables.
type Strength string

const (
	StrengthLow    Strength = "low"
	StrengthMedium Strength = "medium"
	StrengthHigh   Strength = "high"
)

// NormalizeName lowercases and trims an enum-like input. Lookups happen on
// the normalized form so "High " and "high" resolve the same way.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
