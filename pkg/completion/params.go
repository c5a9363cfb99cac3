package completion

import (
	"github.com/papercomputeco/toolbox/pkg/llm"
)

// ParameterResolver maps a requested provider and reasoning strength onto
// the configured tables. Resolution never fails: unknown input maps to the
// configured default.
type ParameterResolver struct {
	tables *Tables
}

// NewParameterResolver creates a resolver over validated tables.
func NewParameterResolver(t *Tables) *ParameterResolver {
	return &ParameterResolver{tables: t}
}

// Provider returns the canonical provider name for the request, falling back
// to the default provider for empty or unknown names.
func (r *ParameterResolver) Provider(requested string) string {
	name := llm.NormalizeName(requested)
	if _, ok := r.tables.Providers[name]; ok {
		return name
	}
	return r.tables.DefaultProvider
}

// Profile returns the profile for a provider name already resolved by
// Provider.
func (r *ParameterResolver) Profile(provider string) ProviderProfile {
	return r.tables.Providers[provider]
}

// Strength returns the resolved level and its bundle. A level missing from
// the provider's table resolves to the provider's default level.
func (r *ParameterResolver) Strength(provider string, requested llm.Strength) (llm.Strength, Bundle) {
	profile := r.tables.Providers[provider]

	level := llm.Strength(llm.NormalizeName(string(requested)))
	if bundle, ok := profile.Strengths[level]; ok {
		return level, bundle
	}
	return profile.DefaultStrength, profile.Strengths[profile.DefaultStrength]
}

// Parameters are the effective dispatch values for one request.
type Parameters struct {
	Provider string
	Strength llm.Strength
	Bundle   Bundle

	// Chain is the ordered list of models the orchestrator may try. It holds
	// only the pinned model when Pinned is set.
	Chain  []string
	Pinned bool

	Temperature float64
	MaxTokens   *int
}

// Resolve computes every effective parameter for req. An explicit request
// temperature overrides the bundle's; the rest of the bundle stands.
func (r *ParameterResolver) Resolve(req *llm.CompletionRequest) Parameters {
	provider := r.Provider(req.Provider)
	profile := r.Profile(provider)
	strength, bundle := r.Strength(provider, req.ReasoningStrength)

	params := Parameters{
		Provider:    provider,
		Strength:    strength,
		Bundle:      bundle,
		Temperature: bundle.Temperature,
		MaxTokens:   profile.MaxTokens,
	}

	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}

	if req.Model != "" {
		params.Chain = []string{req.Model}
		params.Pinned = true
	} else {
		params.Chain = profile.Chain()
	}

	return params
}
