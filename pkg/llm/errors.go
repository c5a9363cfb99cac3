package llm

import (
	"errors"
	"fmt"
)

// ErrorResponse is the JSON body returned by HTTP handlers on request-level
// failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorKind classifies provider failures. The fallback orchestrator only
// retries on ErrModelUnavailable.
type ErrorKind int

const (
	// ErrUnknown is any failure the adapter could not classify.
	ErrUnknown ErrorKind = iota

	// ErrModelUnavailable means the requested model does not exist, was
	// deprecated, or is not accessible to this key.
	ErrModelUnavailable

	// ErrAuth covers missing, invalid, or unauthorized credentials.
	ErrAuth

	// ErrRateLimited covers 429 and vendor overload responses.
	ErrRateLimited

	// ErrInvalidRequest is any other 4xx.
	ErrInvalidRequest

	// ErrUpstream is a 5xx from the vendor.
	ErrUpstream

	// ErrNetwork is a transport failure before a response was received.
	ErrNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case ErrModelUnavailable:
		return "model_unavailable"
	case ErrAuth:
		return "auth"
	case ErrRateLimited:
		return "rate_limited"
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrUpstream:
		return "upstream"
	case ErrNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ProviderError is returned by every completion provider adapter.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Model      string
	StatusCode int

	// Message is the human-readable vendor message. It is what callers see
	// in a failed CompletionResult.
	Message string

	Err error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s error", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or ErrUnknown when err is not a
// *ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrUnknown
}

// IsModelUnavailable reports whether err is a model-unavailable provider
// failure.
func IsModelUnavailable(err error) bool {
	return KindOf(err) == ErrModelUnavailable
}

// KindFromStatus maps an HTTP status code to an ErrorKind. A 404 is treated
// as model-unavailable: both vendors answer unknown models with 404.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == 404:
		return ErrModelUnavailable
	case status == 401 || status == 403:
		return ErrAuth
	case status == 429 || status == 529:
		return ErrRateLimited
	case status >= 500:
		return ErrUpstream
	case status >= 400:
		return ErrInvalidRequest
	default:
		return ErrUnknown
	}
}
