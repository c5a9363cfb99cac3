// Package credentials stores LLM provider API keys in credentials.toml
// inside the .toolbox/ directory. Environment variables always win over
// stored keys.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/toolbox/pkg/dotdir"
	"github.com/papercomputeco/toolbox/pkg/llm"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// providerEnvVars maps provider names to their expected environment variables.
var providerEnvVars = map[string]string{
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Store reads and writes credentials.toml.
type Store struct {
	ddm        *dotdir.Manager
	override   string
	targetPath string
}

// NewStore resolves the .toolbox/ directory the same way config does. When
// none exists, nothing is created until the first write.
func NewStore(override string) (*Store, error) {
	s := &Store{
		ddm:      dotdir.NewManager(),
		override: override,
	}

	target, err := s.ddm.Target(override)
	if err != nil {
		return nil, err
	}
	if target != "" {
		s.targetPath = filepath.Join(target, credentialsFile)
	}

	return s, nil
}

// Load reads credentials.toml. A missing file yields empty credentials.
func (s *Store) Load() (*Credentials, error) {
	empty := &Credentials{
		Version:   currentVersion,
		Providers: make(map[string]ProviderCredential),
	}
	if s.targetPath == "" {
		return empty, nil
	}

	data, err := os.ReadFile(s.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}

	return creds, nil
}

// Save writes credentials with 0600 permissions, creating ~/.toolbox/ when
// no directory was resolved.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	if s.targetPath == "" {
		dir, err := s.ddm.Create(s.override)
		if err != nil {
			return err
		}
		s.targetPath = filepath.Join(dir, credentialsFile)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(s.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetKey stores an API key for provider.
func (s *Store) SetKey(provider, key string) error {
	if !IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider: %q", provider)
	}

	creds, err := s.Load()
	if err != nil {
		return err
	}

	creds.Providers[provider] = ProviderCredential{APIKey: key}

	return s.Save(creds)
}

// GetKey returns the stored key for provider, or "" when none is stored.
func (s *Store) GetKey(provider string) (string, error) {
	creds, err := s.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[provider].APIKey, nil
}

// RemoveKey deletes the stored key for provider.
func (s *Store) RemoveKey(provider string) error {
	creds, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := creds.Providers[provider]; !ok {
		return nil
	}

	delete(creds.Providers, provider)

	return s.Save(creds)
}

// ListProviders returns the providers with stored keys, sorted.
func (s *Store) ListProviders() ([]string, error) {
	creds, err := s.Load()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	return providers, nil
}

// Lookup resolves the key for provider from its environment variable, then
// from the store.
func (s *Store) Lookup(provider string) (string, Source, error) {
	if envVar := EnvVarForProvider(provider); envVar != "" {
		if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
			return key, SourceEnv, nil
		}
	}

	key, err := s.GetKey(provider)
	if err != nil {
		return "", SourceNone, err
	}
	if key == "" {
		return "", SourceNone, nil
	}
	return key, SourceStore, nil
}

// GetTarget returns the resolved credentials file path, or "" before the
// first write when no .toolbox/ directory exists.
func (s *Store) GetTarget() string {
	return s.targetPath
}

// EnvVarForProvider returns the environment variable for provider, or "".
func EnvVarForProvider(provider string) string {
	return providerEnvVars[provider]
}

// SupportedProviders returns the providers that take API keys.
func SupportedProviders() []string {
	return []string{llm.ProviderOpenAI, llm.ProviderAnthropic}
}

// IsSupportedProvider returns true if provider takes an API key.
func IsSupportedProvider(provider string) bool {
	return slices.Contains(SupportedProviders(), provider)
}

// Mask hides all but the first and last four characters of key.
func Mask(key string) string {
	const keep = 4
	if len(key) <= 2*keep {
		return strings.Repeat("*", len(key))
	}
	return key[:keep] + strings.Repeat("*", 8) + key[len(key)-keep:]
}
