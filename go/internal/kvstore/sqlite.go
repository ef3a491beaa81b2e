package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value BLOB,
		updated_at INTEGER NOT NULL DEFAULT (unixepoch())
	);`,
	get: `SELECT value FROM kv_store WHERE key = ?`,
	upsert: `INSERT INTO kv_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()`,
	encode: func(value []byte) interface{} { return value },
	scan: func(row *sql.Row) ([]byte, bool, error) {
		var value []byte
		if err := row.Scan(&value); err != nil {
			return nil, false, err
		}
		return value, value != nil, nil
	},
}

// OpenSQLite opens (or creates) a sqlite database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer avoids SQLITE_BUSY between concurrent registrations
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store, err := newSQLStore(ctx, db, sqliteDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("opened sqlite store")
	return store, nil
}
