package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/toolbox/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeCallCompleted is emitted after a tool call finishes, whether
	// or not it succeeded.
	EventTypeCallCompleted = "toolbox.call.completed"
)

// CallCompletedEvent is a transport-neutral event payload for a finished
// tool call.
type CallCompletedEvent struct {
	SchemaVersion int                `json:"schema_version"`
	EventType     string             `json:"event_type"`
	EventID       string             `json:"event_id"`
	EmittedAt     time.Time          `json:"emitted_at"`
	Source        EventSource        `json:"source"`
	Call          storage.CallRecord `json:"call"`
}

// EventSource identifies where the call originated.
type EventSource struct {
	// Surface is the entry point: "api", "mcp", or "cli".
	Surface string `json:"surface"`
	Tool    string `json:"tool"`
}

// NewCallCompletedEvent wraps rec in a v1 event envelope.
func NewCallCompletedEvent(surface string, rec *storage.CallRecord, now time.Time) *CallCompletedEvent {
	return &CallCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeCallCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source: EventSource{
			Surface: surface,
			Tool:    rec.Tool,
		},
		Call: *rec,
	}
}
