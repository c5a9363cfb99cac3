package completion

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

// Bundle is the fixed sampling parameter set for one reasoning-strength
// level. Nil fields are left unset on the wire.
type Bundle struct {
	Temperature      float64  `json:"temperature"`
	TopP             *float64 `json:"top_p,omitempty"`
	TopK             *int     `json:"top_k,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
}

// ProviderProfile holds the per-vendor defaults: the model fallback chain,
// the strength table, and token limits.
type ProviderProfile struct {
	// DefaultModel is the primary model, tried first when the caller does
	// not pin one.
	DefaultModel string

	// Fallbacks are tried in order after DefaultModel on model-unavailable
	// failures.
	Fallbacks []string

	// DefaultStrength is used when the requested level is absent or not in
	// Strengths.
	DefaultStrength llm.Strength

	Strengths map[llm.Strength]Bundle

	// MaxTokens is the default output token limit. Nil leaves it unset.
	MaxTokens *int
}

// Chain returns the model fallback chain, primary first, with empty and
// duplicate entries removed.
func (p ProviderProfile) Chain() []string {
	chain := make([]string, 0, 1+len(p.Fallbacks))
	seen := make(map[string]struct{}, 1+len(p.Fallbacks))
	for _, m := range append([]string{p.DefaultModel}, p.Fallbacks...) {
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		chain = append(chain, m)
	}
	return chain
}

// Tables is the read-only configuration data behind parameter resolution
// and prompt augmentation. Build one with DefaultTables, adjust it, then hand
// it to NewService; the service keeps its own copy.
type Tables struct {
	// DefaultProvider is used when a request names no provider or an
	// unknown one.
	DefaultProvider string

	Providers map[string]ProviderProfile

	DefaultReasoning      llm.ReasoningType
	ReasoningInstructions map[llm.ReasoningType]string

	DefaultFormat      llm.ResponseFormat
	FormatInstructions map[llm.ResponseFormat]string
}

// Validate checks that every default points at an existing table entry.
func (t *Tables) Validate() error {
	if t == nil {
		return errors.New("tables are required")
	}
	if _, ok := t.Providers[t.DefaultProvider]; !ok {
		return fmt.Errorf("default provider %q has no profile", t.DefaultProvider)
	}
	for name, p := range t.Providers {
		if p.DefaultModel == "" {
			return fmt.Errorf("provider %q: default model is required", name)
		}
		if _, ok := p.Strengths[p.DefaultStrength]; !ok {
			return fmt.Errorf("provider %q: default strength %q is not in its strength table", name, p.DefaultStrength)
		}
	}
	if _, ok := t.ReasoningInstructions[t.DefaultReasoning]; !ok {
		return fmt.Errorf("default reasoning type %q has no instruction entry", t.DefaultReasoning)
	}
	if _, ok := t.FormatInstructions[t.DefaultFormat]; !ok {
		return fmt.Errorf("default response format %q has no instruction entry", t.DefaultFormat)
	}
	return nil
}

// Clone returns a deep copy.
func (t *Tables) Clone() *Tables {
	out := &Tables{
		DefaultProvider:       t.DefaultProvider,
		Providers:             make(map[string]ProviderProfile, len(t.Providers)),
		DefaultReasoning:      t.DefaultReasoning,
		ReasoningInstructions: maps.Clone(t.ReasoningInstructions),
		DefaultFormat:         t.DefaultFormat,
		FormatInstructions:    maps.Clone(t.FormatInstructions),
	}
	for name, p := range t.Providers {
		p.Fallbacks = slices.Clone(p.Fallbacks)
		p.Strengths = maps.Clone(p.Strengths)
		out.Providers[name] = p
	}
	return out
}

// DefaultTables returns the built-in strength tables, fallback chains, and
// instruction maps.
func DefaultTables() *Tables {
	return &Tables{
		DefaultProvider: llm.ProviderAnthropic,
		Providers: map[string]ProviderProfile{
			llm.ProviderOpenAI: {
				DefaultModel:    "gpt-4o",
				Fallbacks:       []string{"gpt-4-turbo", "gpt-4"},
				DefaultStrength: llm.StrengthHigh,
				Strengths: map[llm.Strength]Bundle{
					llm.StrengthLow: {
						Temperature:      0.2,
						TopP:             utils.Ptr(0.8),
						FrequencyPenalty: utils.Ptr(0.0),
						PresencePenalty:  utils.Ptr(0.0),
					},
					llm.StrengthMedium: {
						Temperature:      0.5,
						TopP:             utils.Ptr(0.9),
						FrequencyPenalty: utils.Ptr(0.1),
						PresencePenalty:  utils.Ptr(0.1),
					},
					llm.StrengthHigh: {
						Temperature:      0.7,
						TopP:             utils.Ptr(1.0),
						FrequencyPenalty: utils.Ptr(0.2),
						PresencePenalty:  utils.Ptr(0.2),
					},
				},
			},
			llm.ProviderAnthropic: {
				DefaultModel:    "claude-3-5-sonnet-20241022",
				Fallbacks:       []string{"claude-3-opus-20240229", "claude-3-haiku-20240307"},
				DefaultStrength: llm.StrengthMedium,
				MaxTokens:       utils.Ptr(4096),
				Strengths: map[llm.Strength]Bundle{
					llm.StrengthLow: {
						Temperature: 0.2,
						TopP:        utils.Ptr(0.8),
						TopK:        utils.Ptr(20),
					},
					llm.StrengthMedium: {
						Temperature: 0.5,
						TopP:        utils.Ptr(0.9),
						TopK:        utils.Ptr(40),
					},
					llm.StrengthHigh: {
						Temperature: 0.7,
						TopP:        utils.Ptr(1.0),
					},
				},
			},
		},

		DefaultReasoning: llm.ReasoningAuto,
		ReasoningInstructions: map[llm.ReasoningType]string{
			llm.ReasoningAuto:           "",
			llm.ReasoningStepByStep:     "Work through the problem step by step, stating each step before moving to the next.",
			llm.ReasoningChainOfThought: "Think through your reasoning explicitly before giving the final answer, then state the answer clearly.",
			llm.ReasoningAnalytical:     "Break the problem into its components, analyze each one, and support conclusions with evidence.",
			llm.ReasoningCritical:       "Evaluate the material critically: question assumptions, look for weaknesses, and weigh alternatives.",
			llm.ReasoningCreative:       "Explore unconventional approaches and offer several distinct ideas before settling on one.",
		},

		DefaultFormat: llm.FormatText,
		FormatInstructions: map[llm.ResponseFormat]string{
			llm.FormatText:         "",
			llm.FormatMarkdown:     "Format the response as Markdown with headings, lists, and fenced code blocks where appropriate.",
			llm.FormatJSON:         "Respond with a single valid JSON object and no surrounding prose.",
			llm.FormatBulletPoints: "Format the response as a concise bulleted list.",
			llm.FormatConcise:      "Keep the response brief and to the point.",
		},
	}
}
