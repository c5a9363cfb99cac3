package completion

import (
	"errors"
	"time"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

// ErrEmptyCompletion is reported when a provider answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// Normalizer turns orchestrator outcomes into the uniform result envelope.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer. A nil clock uses time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Success builds a successful envelope from the first text block of resp.
// A response with no text is reported as a failure.
func (n *Normalizer) Success(resp *llm.ChatResponse, meta llm.ResultMetadata) llm.CompletionResult {
	var text string
	ok := false
	if resp != nil {
		text, ok = resp.Message.FirstText()
	}
	if !ok {
		return n.Failure(ErrEmptyCompletion, meta)
	}

	meta.Timestamp = n.timestamp()
	return llm.CompletionResult{
		Success:  true,
		Text:     text,
		Metadata: meta,
	}
}

// Failure builds a failed envelope carrying err's message.
func (n *Normalizer) Failure(err error, meta llm.ResultMetadata) llm.CompletionResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	meta.Timestamp = n.timestamp()
	return llm.CompletionResult{
		Success:  false,
		Error:    msg,
		Metadata: meta,
	}
}

func (n *Normalizer) timestamp() string {
	return n.now().UTC().Format(time.RFC3339Nano)
}
