// Package sqlstore implements storage.Driver over database/sql. The sqlite
// and postgres drivers embed it and differ only in dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/toolbox/pkg/storage"
)

// Dialect selects placeholder style and column types.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Store implements storage.Driver on a *sql.DB.
type Store struct {
	DB      *sql.DB
	dialect Dialect
}

// New wraps db and creates the schema if needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{DB: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	boolType, tsType := "INTEGER", "TEXT"
	if s.dialect == Postgres {
		boolType, tsType = "BOOLEAN", "TIMESTAMPTZ"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_records (
			id          TEXT PRIMARY KEY,
			tool        TEXT NOT NULL,
			provider    TEXT NOT NULL DEFAULT '',
			model       TEXT NOT NULL DEFAULT '',
			success     ` + boolType + ` NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			attempts    INTEGER NOT NULL DEFAULT 0,
			started_at  ` + tsType + ` NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			target      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS call_records_started_at ON call_records (started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put upserts rec.
func (s *Store) Put(ctx context.Context, rec *storage.CallRecord) error {
	if rec == nil {
		return storage.ErrNilRecord
	}

	query := s.rebind(`INSERT INTO call_records
		(id, tool, provider, model, success, error, attempts, started_at, duration_ms, target)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			tool = excluded.tool,
			provider = excluded.provider,
			model = excluded.model,
			success = excluded.success,
			error = excluded.error,
			attempts = excluded.attempts,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			target = excluded.target`)

	_, err := s.DB.ExecContext(ctx, query,
		rec.ID, rec.Tool, rec.Provider, rec.Model, rec.Success, rec.Error,
		rec.Attempts, s.encodeTime(rec.StartedAt), rec.DurationMs, rec.Target,
	)
	if err != nil {
		return fmt.Errorf("failed to store call record %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.CallRecord, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ?`), id)

	rec, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call record %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*storage.CallRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	rows, err := s.DB.QueryContext(ctx,
		s.rebind(selectColumns+` ORDER BY started_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	defer rows.Close()

	var out []*storage.CallRecord
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

const selectColumns = `SELECT id, tool, provider, model, success, error, attempts, started_at, duration_ms, target FROM call_records`

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner) (*storage.CallRecord, error) {
	var (
		rec       storage.CallRecord
		startedAt any
	)
	err := row.Scan(
		&rec.ID, &rec.Tool, &rec.Provider, &rec.Model, &rec.Success, &rec.Error,
		&rec.Attempts, &startedAt, &rec.DurationMs, &rec.Target,
	)
	if err != nil {
		return nil, err
	}

	rec.StartedAt, err = decodeTime(startedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SQLite stores timestamps as RFC 3339 text so that lexical order matches
// chronological order.
func (s *Store) encodeTime(t time.Time) any {
	if s.dialect == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(timeLayout)
}

// timeLayout is fixed-width so that text comparison sorts correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.Parse(timeLayout, t)
	case []byte:
		return time.Parse(timeLayout, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected started_at type %T", v)
	}
}
