package credentials

// Credentials is the content of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential holds the API key for a single provider.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}

// Source tells where a resolved API key came from.
type Source string

const (
	SourceNone  Source = ""
	SourceEnv   Source = "env"
	SourceStore Source = "credentials.toml"
)
