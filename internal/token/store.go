package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Klingon-tech/xecwallet/internal/storage"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

var prefixToken = []byte("t/") // t/<tokenID(32)> -> Metadata JSON

// ErrNotCached is returned by Get for tokens that were never stored.
var ErrNotCached = errors.New("token not cached")

// Store persists token genesis metadata.
type Store struct {
	db storage.DB
}

// NewStore creates a token metadata store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Put stores metadata for a token.
func (s *Store) Put(meta *Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}
	return s.db.Put(tokenKey(meta.TokenID), data)
}

// Get retrieves metadata for a token.
func (s *Store) Get(id chainhash.Hash) (*Metadata, error) {
	data, err := s.db.Get(tokenKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}
	meta.TokenID = id
	return &meta, nil
}

// SetGenesisSupply records the genesis supply of an already cached token.
func (s *Store) SetGenesisSupply(id chainhash.Hash, supply uint64) error {
	meta, err := s.Get(id)
	if err != nil {
		return err
	}
	meta.GenesisSupply = &supply
	return s.Put(meta)
}

// Has checks if metadata exists for a token.
func (s *Store) Has(id chainhash.Hash) (bool, error) {
	return s.db.Has(tokenKey(id))
}

// Delete drops a token from the cache.
func (s *Store) Delete(id chainhash.Hash) error {
	return s.db.Delete(tokenKey(id))
}

// ForEach iterates over all cached tokens.
// Return a non-nil error from fn to stop iteration early.
func (s *Store) ForEach(fn func(*Metadata) error) error {
	return s.db.ForEach(prefixToken, func(key, value []byte) error {
		// Key layout: "t/" + tokenID(32).
		if len(key) != len(prefixToken)+types.HashSize {
			return nil // Malformed key, skip.
		}
		var meta Metadata
		if err := json.Unmarshal(value, &meta); err != nil {
			return nil // Skip corrupt entries.
		}
		copy(meta.TokenID[:], key[len(prefixToken):])
		return fn(&meta)
	})
}

// List returns all cached tokens.
func (s *Store) List() ([]*Metadata, error) {
	entries := []*Metadata{}
	err := s.ForEach(func(meta *Metadata) error {
		entries = append(entries, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func tokenKey(id chainhash.Hash) []byte {
	key := make([]byte, len(prefixToken)+types.HashSize)
	copy(key, prefixToken)
	copy(key[len(prefixToken):], id[:])
	return key
}
