package completion

import (
	"strings"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

// partSeparator joins the composed system prompt parts.
const partSeparator = "\n\n"

// PromptAugmenter composes the system prompt from a base prompt plus the
// reasoning-style and response-format instructions.
type PromptAugmenter struct {
	tables *Tables
}

// NewPromptAugmenter creates an augmenter over validated tables.
func NewPromptAugmenter(t *Tables) *PromptAugmenter {
	return &PromptAugmenter{tables: t}
}

// ReasoningType returns rt if it has an instruction entry, otherwise the
// default reasoning type.
func (a *PromptAugmenter) ReasoningType(rt llm.ReasoningType) llm.ReasoningType {
	normalized := llm.ReasoningType(llm.NormalizeName(string(rt)))
	if _, ok := a.tables.ReasoningInstructions[normalized]; ok {
		return normalized
	}
	return a.tables.DefaultReasoning
}

// ResponseFormat returns rf if it has an instruction entry, otherwise the
// default format.
func (a *PromptAugmenter) ResponseFormat(rf llm.ResponseFormat) llm.ResponseFormat {
	normalized := llm.ResponseFormat(llm.NormalizeName(string(rf)))
	if _, ok := a.tables.FormatInstructions[normalized]; ok {
		return normalized
	}
	return a.tables.DefaultFormat
}

// Compose returns base, the reasoning instruction, and the format
// instruction, in that order, joined by a blank line. Empty parts are
// skipped. The second return is false when every part was empty.
func (a *PromptAugmenter) Compose(base string, rt llm.ReasoningType, rf llm.ResponseFormat) (string, bool) {
	parts := make([]string, 0, 3)
	for _, part := range []string{
		base,
		a.tables.ReasoningInstructions[a.ReasoningType(rt)],
		a.tables.FormatInstructions[a.ResponseFormat(rf)],
	} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, partSeparator), true
}
