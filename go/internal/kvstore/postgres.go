package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/racecycles/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	get: `SELECT value FROM kv_store WHERE key = $1`,
	upsert: `INSERT INTO kv_store (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
	encode: func(value []byte) interface{} { return sqlutil.ToNullRawMessage(value) },
	scan: func(row *sql.Row) ([]byte, bool, error) {
		var value pqtype.NullRawMessage
		if err := row.Scan(&value); err != nil {
			return nil, false, err
		}
		return sqlutil.FromNullRawMessage(value), value.Valid, nil
	},
}

// OpenPostgres connects to Postgres and ensures the kv_store table exists.
// Values must be JSON documents.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := newSQLStore(ctx, db, postgresDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("connected to postgres store")
	return store, nil
}
