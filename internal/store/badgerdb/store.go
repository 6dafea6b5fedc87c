// Package badgerdb is an embedded key-value Store implementation on dgraph-io/badger.
// It suits single-binary deployments that would rather not carry SQLite files.
package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

var _ store.Store = (*Store)(nil)

// maxConflictRetries bounds how often a transaction is replayed after
// badger reports a write conflict with a concurrent commit.
const maxConflictRetries = 16

// Store wraps a Badger database instance.
type Store struct {
	db      *badger.DB
	logger  *slog.Logger
	ids     *badger.Sequence
	flavors *Entity[domain.Flavor]
}

// Open creates or opens the database directory at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	ids, err := db.GetSequence([]byte(flavorSeqKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("flavor id sequence: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Badger database opened successfully", "path", path)

	return &Store{
		db:     db,
		logger: logger,
		ids:    ids,
		flavors: NewEntity[domain.Flavor](flavorPrefix).
			WithIndex("slug", func(f *domain.Flavor) []string { return []string{f.Slug} }).
			WithIndexTransform("name",
				func(f *domain.Flavor) []string { return []string{store.NameKey(f.Name)} },
				store.NameKey,
			),
	}, nil
}

// Close releases the id lease and closes the database.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	if err := s.ids.Release(); err != nil {
		s.logger.Warn("failed to release flavor id sequence", "error", err)
	}
	return s.db.Close()
}

// Ping fails once the database has been closed.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("database is closed")
	}
	return s.view(ctx, func(*badger.Txn) error { return nil })
}

// update runs fn in a read-write transaction, replaying it when a concurrent
// commit touched the same keys.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt == maxConflictRetries {
			return fmt.Errorf("transaction kept conflicting after %d attempts: %w", attempt+1, err)
		}
		s.logger.Debug("retrying conflicted transaction", "attempt", attempt+1)
	}
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}
