package completion

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/toolbox/pkg/llm"
)

// AttemptFunc performs one provider call with the given model.
type AttemptFunc func(ctx context.Context, model string) (*llm.ChatResponse, error)

// Outcome is the terminal state of an orchestrator run.
type Outcome struct {
	// Response is set when the run succeeded.
	Response *llm.ChatResponse

	// Model is the model of the last attempt: the one that succeeded, or the
	// one whose error is reported.
	Model string

	// Tried lists every attempted model in order.
	Tried []string

	// Err is the last error when the run failed.
	Err error
}

// Succeeded reports whether the run ended in the Succeeded state.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Response != nil
}

// Orchestrator runs the fallback state machine:
//
//	Attempting(model) -> Succeeded | Retrying(next) | Failed
//
// It retries only when the model was not pinned and the failure is
// model-unavailable. Attempts are strictly sequential.
type Orchestrator struct {
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(logger *slog.Logger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// Run walks chain in order until an attempt succeeds, a non-retryable error
// occurs, or the chain is exhausted. A model is never attempted twice.
func (o *Orchestrator) Run(ctx context.Context, chain []string, pinned bool, attempt AttemptFunc) Outcome {
	var out Outcome
	tried := make(map[string]struct{}, len(chain))

	for _, model := range chain {
		if _, seen := tried[model]; seen {
			continue
		}

		if len(out.Tried) > 0 {
			if err := ctx.Err(); err != nil {
				out.Err = err
				return out
			}
		}

		tried[model] = struct{}{}
		out.Tried = append(out.Tried, model)
		out.Model = model

		resp, err := attempt(ctx, model)
		if err == nil {
			out.Response = resp
			out.Err = nil
			return out
		}
		out.Err = err

		if pinned || !llm.IsModelUnavailable(err) {
			o.logger.Debug("completion attempt failed, not retrying",
				"model", model,
				"pinned", pinned,
				"kind", llm.KindOf(err).String(),
				"error", err,
			)
			return out
		}

		o.logger.Warn("model unavailable, trying next in fallback chain",
			"model", model,
			"attempt", len(out.Tried),
			"error", err,
		)
	}

	return out
}
