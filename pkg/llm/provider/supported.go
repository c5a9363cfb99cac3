package provider

import (
	"fmt"
	"net/http"
	"time"

	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/toolbox/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Anthropic = llm.ProviderAnthropic
	OpenAI    = llm.ProviderOpenAI
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI}
}

// Options configures a provider created with New. Zero values fall back to
// each adapter's environment-driven defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// New creates a new Provider instance for the given provider type.
// Returns an error if the provider type is not recognized.
func New(providerType string, opts Options) (Provider, error) {
	switch providerType {
	case Anthropic:
		aopts := []anthropic.Option{anthropic.WithMaxRetries(opts.MaxRetries)}
		if opts.APIKey != "" {
			aopts = append(aopts, anthropic.WithAPIKey(opts.APIKey))
		}
		if opts.BaseURL != "" {
			aopts = append(aopts, anthropic.WithBaseURL(opts.BaseURL))
		}
		if opts.HTTPClient != nil {
			aopts = append(aopts, anthropic.WithHTTPClient(opts.HTTPClient))
		} else if opts.Timeout > 0 {
			aopts = append(aopts, anthropic.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
		}
		return anthropic.New(aopts...), nil

	case OpenAI:
		var oopts []openai.Option
		if opts.APIKey != "" {
			oopts = append(oopts, openai.WithAPIKey(opts.APIKey))
		}
		if opts.BaseURL != "" {
			oopts = append(oopts, openai.WithBaseURL(opts.BaseURL))
		}
		if opts.HTTPClient != nil {
			oopts = append(oopts, openai.WithHTTPClient(opts.HTTPClient))
		} else if opts.Timeout > 0 {
			oopts = append(oopts, openai.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
		}
		return openai.New(oopts...), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}
