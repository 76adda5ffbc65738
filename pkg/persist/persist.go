// Package persist implements the persisted cache schema spec.md §6
// describes: a cross-run, cross-machine store for Portable-tagged hash
// entries, keyed by a ContentHash or StructuralHash prefixed with the
// EvalInputs fingerprint that produced it. BadgerDB backs it as an L2
// store behind the in-memory cache, holding durable portable entries
// rather than a demo eviction target.
//
// © 2025 evalhash authors. MIT License.
package persist

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/singleflight"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
	"github.com/Voskan/evalhash/pkg"
)

// ErrNotPortable is returned by Put when asked to persist an entry whose
// portability tag is not Portable — spec.md §6: "entries whose producing
// hash has a non-Portable tag MUST NOT be persisted."
var ErrNotPortable = errors.New("evalhash/persist: refusing to persist a non-portable entry")

// Store is a Badger-backed persisted cache. It is safe for concurrent use.
type Store struct {
	db       *badger.DB
	inputsFP pkg.ContentHash
	loaders  singleflight.Group
}

// Open opens (or creates) a Badger database at dir. inputsFP is the
// fingerprint of the EvalInputs this store's entries were produced under;
// it is mixed into every key so that entries from an incompatible
// evaluation configuration are never confused with each other.
func Open(dir string, inputsFP pkg.ContentHash) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("evalhash/persist: open %s: %w", dir, err)
	}
	return &Store{db: db, inputsFP: inputsFP}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) key(h pkg.StructuralHash) []byte {
	prefix := s.inputsFP.Bytes()
	suffix := h.Bytes()
	key := make([]byte, 0, len(prefix)+len(suffix))
	key = append(key, prefix...)
	key = append(key, suffix...)
	return key
}

// Put persists v under h, encoded via pkg.SerializeValue. portability must
// be pkg.Portable; anything else is rejected per spec.md §6.
func (s *Store) Put(h pkg.StructuralHash, v *langvalue.Value, symbols *ast.SymbolTable, portability pkg.Portability) error {
	if portability != pkg.Portable {
		return ErrNotPortable
	}
	payload, err := pkg.SerializeValue(v, symbols)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(h), payload)
	})
}

// Get retrieves and decodes the value stored under h, if any. Concurrent
// Gets for the same h are coalesced via singleflight: unlike the in-memory
// thunk cache (spec.md §5's "both compute, both insert" rule), a disk read
// has no correctness reason to run twice for concurrent callers.
func (s *Store) Get(ctx context.Context, h pkg.StructuralHash) (*langvalue.Value, bool, error) {
	k := h.Hex()
	res, err, _ := s.loaders.Do(k, func() (any, error) {
		var payload []byte
		err := s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(s.key(h))
			if err != nil {
				return err
			}
			return item.Value(func(b []byte) error {
				payload = append([]byte(nil), b...)
				return nil
			})
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return pkg.DeserializeValue(payload)
	})
	if err != nil {
		return nil, false, err
	}
	if res == nil {
		return nil, false, nil
	}
	return res.(*langvalue.Value), true, nil
}

// Delete removes any entry stored under h.
func (s *Store) Delete(h pkg.StructuralHash) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(h))
	})
}

// Len returns the number of keys under this store's EvalInputs prefix.
// Intended for diagnostics (cmd/evalhash-inspect), not the hot path: it
// scans the whole prefix range.
func (s *Store) Len() (int, error) {
	n := 0
	prefix := s.inputsFP.Bytes()
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
