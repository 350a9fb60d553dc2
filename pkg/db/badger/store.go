// Package badger provides a BadgerDB-backed db.Store.
//
// This is the persistent backend: registrations and the successor memo
// survive restarts and crashes, which is what makes repeat normalisation
// cheap across engine processes. BadgerDB gives per-key transactional
// isolation, matching the sharing the engine permits between processes.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/depot/pkg/db"
	"github.com/marmos91/depot/pkg/term"
)

// BadgerStore implements db.Store on a BadgerDB database.
//
// Thread Safety:
// BadgerDB transactions provide isolation; the struct itself holds no
// mutable state beyond the database handle and is safe for concurrent
// use from multiple goroutines.
type BadgerStore struct {
	db *badger.DB
}

var _ db.Store = (*BadgerStore)(nil)

// BadgerStoreConfig contains configuration for opening the database.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files
	DBPath string `mapstructure:"db_path"`

	// BadgerOptions allows customization of BadgerDB behavior.
	// If nil, defaults tuned for the engine's workload are used.
	BadgerOptions *badger.Options
}

// NewBadgerStore opens (creating if necessary) the database at the
// configured path.
//
// The engine's workload is small keys, point lookups, and one range
// scan, so the defaults disable compression and quiet Badger's logger.
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		opts = badger.DefaultOptions(config.DBPath)
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: bdb}, nil
}

// PathID returns the content id registered for a path, if any.
func (s *BadgerStore) PathID(ctx context.Context, path string) (term.ID, bool, error) {
	if err := ctx.Err(); err != nil {
		return term.ID{}, false, err
	}

	var id term.ID
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyPathID(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := term.ParseID(string(val))
			if err != nil {
				return fmt.Errorf("corrupt path entry for %s: %w", path, err)
			}
			id = parsed
			found = true
			return nil
		})
	})
	if err != nil {
		return term.ID{}, false, err
	}
	return id, found, nil
}

// SetPathID registers a path as carrying the given content id.
//
// The forward entry and the reverse-index entry are written in one
// transaction; a previous registration under a different id has its
// reverse entry dropped in the same transaction.
func (s *BadgerStore) SetPathID(ctx context.Context, path string, id term.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyPathID(path))
		if err == nil {
			var prev term.ID
			verr := item.Value(func(val []byte) error {
				parsed, perr := term.ParseID(string(val))
				if perr != nil {
					return perr
				}
				prev = parsed
				return nil
			})
			if verr == nil && prev != id {
				if derr := txn.Delete(keyIDPath(prev, path)); derr != nil {
					return derr
				}
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := txn.Set(keyPathID(path), []byte(id.String())); err != nil {
			return fmt.Errorf("failed to register path %s: %w", path, err)
		}
		if err := txn.Set(keyIDPath(id, path), nil); err != nil {
			return fmt.Errorf("failed to index path %s: %w", path, err)
		}
		return nil
	})
}

// DeletePathID removes a path registration and its reverse entry.
func (s *BadgerStore) DeletePathID(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyPathID(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var id term.ID
		if err := item.Value(func(val []byte) error {
			parsed, perr := term.ParseID(string(val))
			if perr != nil {
				return perr
			}
			id = parsed
			return nil
		}); err != nil {
			return err
		}
		if err := txn.Delete(keyIDPath(id, path)); err != nil {
			return err
		}
		return txn.Delete(keyPathID(path))
	})
}

// Successor returns the memoised normal-form id for a term id.
func (s *BadgerStore) Successor(ctx context.Context, id term.ID) (term.ID, bool, error) {
	if err := ctx.Err(); err != nil {
		return term.ID{}, false, err
	}

	var succ term.ID
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySuccessor(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := term.ParseID(string(val))
			if err != nil {
				return fmt.Errorf("corrupt successor entry for %s: %w", id, err)
			}
			succ = parsed
			found = true
			return nil
		})
	})
	if err != nil {
		return term.ID{}, false, err
	}
	return succ, found, nil
}

// SetSuccessor records a normalisation memo entry (idempotent overwrite).
func (s *BadgerStore) SetSuccessor(ctx context.Context, from, to term.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keySuccessor(from), []byte(to.String())); err != nil {
			return fmt.Errorf("failed to register successor of %s: %w", from, err)
		}
		return nil
	})
}

// PathsForID returns every path registered as carrying the id, via a
// range scan over the reverse index. Badger iterates keys in order, so
// the result is already lexicographically sorted.
func (s *BadgerStore) PathsForID(ctx context.Context, id term.ID) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var paths []string
	prefix := keyIDPathScanPrefix(id)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			paths = append(paths, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Close closes the BadgerDB database and releases all resources.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
