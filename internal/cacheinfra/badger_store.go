package cacheinfra

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// BadgerStore persists dataset snapshots in a badger database.
type BadgerStore struct {
	db  *badgerdb.DB
	cfg BadgerConfig
}

// OpenBadgerStore validates cfg and opens the database.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := badgerdb.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil).WithSyncWrites(cfg.SyncWrites)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger snapshot store: %w", err)
	}

	return &BadgerStore{db: db, cfg: cfg}, nil
}

func (s *BadgerStore) key(name string) []byte {
	return []byte(s.cfg.KeyPrefix + name)
}

// Load returns the snapshot stored under name.
func (s *BadgerStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var blob []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(s.key(name))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}
	return blob, true, nil
}

// Store writes blob under name, applying the configured TTL.
func (s *BadgerStore) Store(ctx context.Context, name string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry(s.key(name), blob)
		if s.cfg.TTL > 0 {
			entry = entry.WithTTL(s.cfg.TTL)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("failed to store snapshot %q: %w", name, err)
		}
		return nil
	})
}

// Delete removes the snapshot stored under name.
func (s *BadgerStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(s.key(name))
	})
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
