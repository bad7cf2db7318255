package utxo

import (
	"encoding/json"
	"fmt"

	"github.com/contrast-network/contrast-chain/internal/storage"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
)

// prefixUTXO namespaces the persisted UTXO cache within the shared
// storage.DB, via internal/storage.PrefixDB — the chain block store
// keeps its required literal keys (`height-<n>`, `<hash>`, ...)
// unprefixed, so the UTXO snapshot needs its own namespace to avoid
// colliding with them.
var prefixUTXO = []byte("u/")

// Store persists a Cache's utxosByAnchor index to a storage.DB, namespaced
// under prefixUTXO via storage.PrefixDB. The in-memory Cache is the
// source of truth while the node runs; Store exists only to reload that
// state from the opaque storage adapter on startup.
type Store struct {
	db *storage.PrefixDB
}

// NewStore creates a persistence adapter backed by db.
func NewStore(db storage.DB) *Store {
	return &Store{db: storage.NewPrefixDB(db, prefixUTXO)}
}

// Persist writes every UTXO currently in cache to the store, replacing
// whatever was there before.
func (s *Store) Persist(cache *Cache) error {
	if err := s.db.DeleteAll(); err != nil {
		return fmt.Errorf("utxo store: clear before persist: %w", err)
	}
	for anchor, u := range cache.utxosByAnchor {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("utxo store: marshal %s: %w", anchor, err)
		}
		if err := s.db.Put([]byte(anchor), data); err != nil {
			return fmt.Errorf("utxo store: put %s: %w", anchor, err)
		}
	}
	return nil
}

// Load rebuilds a Cache from everything persisted in the store.
func (s *Store) Load() (*Cache, error) {
	cache := New()
	err := s.db.ForEach(nil, func(_, value []byte) error {
		var u contrasttx.UTXO
		if err := json.Unmarshal(value, &u); err != nil {
			return fmt.Errorf("utxo store: unmarshal: %w", err)
		}
		cache.insert(u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("utxo store: load: %w", err)
	}
	return cache, nil
}
