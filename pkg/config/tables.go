package config

import (
	"github.com/papercomputeco/toolbox/pkg/completion"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

// CompletionTables applies the configured default provider and per-vendor
// overrides to the built-in completion tables and validates the result.
func (c *Config) CompletionTables() (*completion.Tables, error) {
	tables := completion.DefaultTables()

	if c.Completion.Provider != "" {
		tables.DefaultProvider = llm.NormalizeName(c.Completion.Provider)
	}

	overrideProfile(tables, llm.ProviderOpenAI, c.OpenAI)
	overrideProfile(tables, llm.ProviderAnthropic, c.Anthropic)

	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}

func overrideProfile(tables *completion.Tables, name string, pc ProviderConfig) {
	profile := tables.Providers[name]

	if pc.Model != "" {
		profile.DefaultModel = pc.Model
	}
	if pc.Fallbacks != nil {
		profile.Fallbacks = append([]string(nil), pc.Fallbacks...)
	}
	if pc.Strength != "" {
		profile.DefaultStrength = llm.Strength(llm.NormalizeName(pc.Strength))
	}
	if pc.MaxTokens > 0 {
		profile.MaxTokens = utils.Ptr(pc.MaxTokens)
	}

	tables.Providers[name] = profile
}
