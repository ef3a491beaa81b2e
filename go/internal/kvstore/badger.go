package kvstore

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"
)

// Badger stores keys in an embedded badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	log.Info().Str("path", path).Msg("opened badger store")
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return value, nil
}

func (b *Badger) Put(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger put %q: %w", key, err)
	}
	return nil
}

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger store is closed")
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
