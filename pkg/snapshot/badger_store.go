package snapshot

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is an optional on-disk cache for Export'd snapshot blobs,
// keyed by an arbitrary caller-chosen name (typically a graph or checkpoint
// name). It exists so the ttgraph CLI's export/import commands have
// somewhere durable to put a blob between runs; the core Graph itself
// never reads from or depends on a BadgerStore.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if necessary) a Badger database at dir
// to use as a snapshot cache.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening badger store at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying Badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Put stores blob under name, overwriting any prior value.
func (s *BadgerStore) Put(name string, blob []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), blob)
	})
}

// Get retrieves the blob stored under name. The second return is false if
// no such name has ever been Put.
func (s *BadgerStore) Get(name string) ([]byte, bool, error) {
	var out []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("snapshot: reading %q: %w", name, err)
	}
	return out, found, nil
}

// List returns every name currently stored.
func (s *BadgerStore) List() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing: %w", err)
	}
	return names, nil
}
