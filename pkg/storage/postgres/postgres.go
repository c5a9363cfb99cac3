// Package postgres provides a PostgreSQL-backed call ledger.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/papercomputeco/toolbox/pkg/storage/sqlstore"
)

const (
	applicationName = "toolbox"
	maxOpenConns    = 8
	connMaxIdleTime = 5 * time.Minute
)

// Driver implements storage.Driver using PostgreSQL.
type Driver struct {
	*sqlstore.Store
}

// NewDriver connects to dsn, which may be a keyword/value string
// ("host=localhost user=toolbox dbname=toolbox sslmode=disable") or a URI
// ("postgres://toolbox@localhost:5432/toolbox"), and creates the schema.
func NewDriver(ctx context.Context, dsn string) (*Driver, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if _, ok := connConfig.RuntimeParams["application_name"]; !ok {
		connConfig.RuntimeParams["application_name"] = applicationName
	}

	db := stdlib.OpenDB(*connConfig)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := sqlstore.New(ctx, db, sqlstore.Postgres)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Store: store}, nil
}
