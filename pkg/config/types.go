package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent toolbox configuration stored as
// config.toml in the .toolbox/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	Events     EventsConfig     `toml:"events"`
	Completion CompletionConfig `toml:"completion"`
	OpenAI     ProviderConfig   `toml:"openai"`
	Anthropic  ProviderConfig   `toml:"anthropic"`
	Web        WebConfig        `toml:"web"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
	MCP    bool   `toml:"mcp"`
}

// StorageConfig selects the call ledger backend. Postgres wins over SQLite
// when both are set; with neither, the ledger is in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// CompletionConfig holds completion service settings.
type CompletionConfig struct {
	// Provider is used when a request names no provider.
	Provider string `toml:"provider,omitempty"`
}

// ProviderConfig overrides one vendor's connection and default profile.
// API keys are read from the environment, never from the config file.
type ProviderConfig struct {
	BaseURL   string   `toml:"base_url,omitempty"`
	Model     string   `toml:"model,omitempty"`
	Fallbacks []string `toml:"fallbacks,omitempty"`
	Strength  string   `toml:"strength,omitempty"`
	MaxTokens int      `toml:"max_tokens,omitempty"`
}

// WebConfig holds outbound web tool settings.
type WebConfig struct {
	UserAgent      string `toml:"user_agent,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.mcp": {
		get: func(c *Config) string { return strconv.FormatBool(c.Server.MCP) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for server.mcp: %w", err)
			}
			c.Server.MCP = b
			return nil
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventsProviderNop, EventsProviderKafka:
				c.Events.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for events.provider: %q (available: nop, kafka)", v)
			}
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error { c.Events.Brokers = SplitList(v); return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"completion.provider": {
		get: func(c *Config) string { return c.Completion.Provider },
		set: func(c *Config, v string) error { c.Completion.Provider = v; return nil },
	},
	"web.user_agent": {
		get: func(c *Config) string { return c.Web.UserAgent },
		set: func(c *Config, v string) error { c.Web.UserAgent = v; return nil },
	},
	"web.timeout_seconds": {
		get: func(c *Config) string { return formatPositive(c.Web.TimeoutSeconds) },
		set: func(c *Config, v string) error {
			return setPositive("web.timeout_seconds", v, &c.Web.TimeoutSeconds)
		},
	},
}

func init() {
	addProviderKeys("openai", func(c *Config) *ProviderConfig { return &c.OpenAI })
	addProviderKeys("anthropic", func(c *Config) *ProviderConfig { return &c.Anthropic })
}

// addProviderKeys registers the five per-vendor keys under section.
func addProviderKeys(section string, pc func(c *Config) *ProviderConfig) {
	configKeys[section+".base_url"] = configKeyInfo{
		get: func(c *Config) string { return pc(c).BaseURL },
		set: func(c *Config, v string) error { pc(c).BaseURL = v; return nil },
	}
	configKeys[section+".model"] = configKeyInfo{
		get: func(c *Config) string { return pc(c).Model },
		set: func(c *Config, v string) error { pc(c).Model = v; return nil },
	}
	configKeys[section+".fallbacks"] = configKeyInfo{
		get: func(c *Config) string { return strings.Join(pc(c).Fallbacks, ",") },
		set: func(c *Config, v string) error { pc(c).Fallbacks = SplitList(v); return nil },
	}
	configKeys[section+".strength"] = configKeyInfo{
		get: func(c *Config) string { return pc(c).Strength },
		set: func(c *Config, v string) error {
			switch v {
			case "low", "medium", "high":
				pc(c).Strength = v
				return nil
			default:
				return fmt.Errorf("invalid value for %s.strength: %q (available: low, medium, high)", section, v)
			}
		},
	}
	configKeys[section+".max_tokens"] = configKeyInfo{
		get: func(c *Config) string { return formatPositive(pc(c).MaxTokens) },
		set: func(c *Config, v string) error {
			return setPositive(section+".max_tokens", v, &pc(c).MaxTokens)
		},
	}
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatPositive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func setPositive(key, v string, dst *int) error {
	if v == "" {
		*dst = 0
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid value for %s: must be a non-negative integer", key)
	}
	*dst = n
	return nil
}
