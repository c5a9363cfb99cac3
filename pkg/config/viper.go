package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/toolbox/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the TOOLBOX_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (TOOLBOX_SERVER_LISTEN, TOOLBOX_EVENTS_BROKERS, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: TOOLBOX_SERVER_LISTEN, TOOLBOX_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("TOOLBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper assembles a Config from the resolved viper keys.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
			MCP:    v.GetBool("server.mcp"),
		},
		Storage: StorageConfig{
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  stringList(v, "events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Completion: CompletionConfig{
			Provider: v.GetString("completion.provider"),
		},
		OpenAI:    providerFromViper(v, "openai"),
		Anthropic: providerFromViper(v, "anthropic"),
		Web: WebConfig{
			UserAgent:      v.GetString("web.user_agent"),
			TimeoutSeconds: v.GetInt("web.timeout_seconds"),
		},
	}
}

func providerFromViper(v *viper.Viper, section string) ProviderConfig {
	return ProviderConfig{
		BaseURL:   v.GetString(section + ".base_url"),
		Model:     v.GetString(section + ".model"),
		Fallbacks: stringList(v, section+".fallbacks"),
		Strength:  v.GetString(section + ".strength"),
		MaxTokens: v.GetInt(section + ".max_tokens"),
	}
}

// stringList reads a list key that may come from a TOML array or a comma
// separated env var or flag.
func stringList(v *viper.Viper, key string) []string {
	switch val := v.Get(key).(type) {
	case string:
		return SplitList(val)
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.mcp", d.Server.MCP)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", strings.Join(d.Events.Brokers, ","))
	v.SetDefault("events.topic", d.Events.Topic)

	// Completion
	v.SetDefault("completion.provider", d.Completion.Provider)
	setProviderDefaults(v, "openai", d.OpenAI)
	setProviderDefaults(v, "anthropic", d.Anthropic)

	// Web
	v.SetDefault("web.user_agent", d.Web.UserAgent)
	v.SetDefault("web.timeout_seconds", d.Web.TimeoutSeconds)
}

func setProviderDefaults(v *viper.Viper, section string, p ProviderConfig) {
	v.SetDefault(section+".base_url", p.BaseURL)
	v.SetDefault(section+".model", p.Model)
	v.SetDefault(section+".fallbacks", strings.Join(p.Fallbacks, ","))
	v.SetDefault(section+".strength", p.Strength)
	v.SetDefault(section+".max_tokens", p.MaxTokens)
}
