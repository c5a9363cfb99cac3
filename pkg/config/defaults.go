package config

import (
	"github.com/papercomputeco/toolbox/pkg/completion"
	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/web"
)

// Event stream providers.
const (
	EventsProviderNop   = "nop"
	EventsProviderKafka = "kafka"
)

const (
	defaultListen        = ":3000"
	defaultEventsTopic   = "toolbox.calls"
	defaultTimeoutSecond = 30
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. Provider profiles
// mirror the built-in completion tables.
func NewDefaultConfig() *Config {
	tables := completion.DefaultTables()

	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
			MCP:    true,
		},
		Events: EventsConfig{
			Provider: EventsProviderNop,
			Topic:    defaultEventsTopic,
		},
		Completion: CompletionConfig{
			Provider: tables.DefaultProvider,
		},
		OpenAI:    providerDefaults(tables.Providers[llm.ProviderOpenAI]),
		Anthropic: providerDefaults(tables.Providers[llm.ProviderAnthropic]),
		Web: WebConfig{
			UserAgent:      web.DefaultUserAgent,
			TimeoutSeconds: defaultTimeoutSecond,
		},
	}
}

func providerDefaults(p completion.ProviderProfile) ProviderConfig {
	pc := ProviderConfig{
		Model:     p.DefaultModel,
		Fallbacks: append([]string(nil), p.Fallbacks...),
		Strength:  string(p.DefaultStrength),
	}
	if p.MaxTokens != nil {
		pc.MaxTokens = *p.MaxTokens
	}
	return pc
}
