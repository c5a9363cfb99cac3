// Package nop is the publisher used when no event stream is configured.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/toolbox/pkg/eventstream"
)

// Publisher drops every event, logging it at debug level.
type Publisher struct {
	logger    *slog.Logger
	discarded atomic.Int64
}

// NewPublisher returns a Publisher. A nil logger discards the debug lines too.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishCall(ctx context.Context, event *eventstream.CallCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilCallEvent
	}

	p.discarded.Add(1)
	p.logger.DebugContext(ctx, "call event discarded",
		"event_id", event.EventID,
		"call_id", event.Call.ID,
		"tool", event.Source.Tool,
	)
	return nil
}

// Discarded is the number of events accepted so far.
func (p *Publisher) Discarded() int64 {
	return p.discarded.Load()
}

func (p *Publisher) Close() error {
	return nil
}
