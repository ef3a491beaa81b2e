package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcdev12/racecycles/go/internal/sqlutil"
)

// dialect holds the statements and value codec that differ between SQL backends.
type dialect struct {
	name   string
	schema string
	get    string
	upsert string
	// encode converts a value into the driver argument for the value column.
	encode func(value []byte) interface{}
	// scan reads the value column; ok is false for SQL NULL.
	scan func(row *sql.Row) (value []byte, ok bool, err error)
}

// SQLStore keeps each key in one row of the kv_store table.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

type kvQueries struct {
	tx      *sql.Tx
	dialect dialect
}

func (q *kvQueries) upsert(ctx context.Context, key string, value []byte) error {
	_, err := q.tx.ExecContext(ctx, q.dialect.upsert, key, q.dialect.encode(value))
	return err
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return nil, fmt.Errorf("initialize %s schema: %w", d.name, err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok, err := s.dialect.scan(s.db.QueryRowContext(ctx, s.dialect.get, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s get %q: %w", s.dialect.name, key, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	err := sqlutil.Run(ctx, s.db,
		func(tx *sql.Tx) *kvQueries { return &kvQueries{tx: tx, dialect: s.dialect} },
		func(q *kvQueries) error { return q.upsert(ctx, key, value) },
	)
	if err != nil {
		return fmt.Errorf("%s put %q: %w", s.dialect.name, key, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
