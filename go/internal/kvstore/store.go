package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Store persists opaque values under string keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the badger directory or sqlite file.
	Path string
	// DSN is the postgres connection URL or the redis URL.
	DSN string
}

// Open creates the store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendBadger, "":
		return OpenBadger(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.Path)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DSN)
	case BackendRedis:
		return OpenRedis(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
}
