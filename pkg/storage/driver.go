// Package storage defines the call ledger: one record per tool call,
// persisted by a pluggable backend.
package storage

import (
	"context"
	"time"
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 50

// CallRecord is the ledger entry for a single tool call.
type CallRecord struct {
	ID       string `json:"id"`
	Tool     string `json:"tool"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`

	// Attempts counts provider calls, including fallbacks. Zero for web
	// tools.
	Attempts int `json:"attempts"`

	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`

	// Target is the URL for web tools.
	Target string `json:"target,omitempty"`
}

// Driver defines the interface for persisting and retrieving call records.
type Driver interface {
	// Put stores a record. Storing an ID twice overwrites the first record.
	Put(ctx context.Context, rec *CallRecord) error

	// Get retrieves a record by ID. It returns NotFoundError when absent.
	Get(ctx context.Context, id string) (*CallRecord, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*CallRecord, error)

	// Close closes the store and releases any resources.
	Close() error
}
