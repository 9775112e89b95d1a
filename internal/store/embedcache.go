// internal/store/embedcache.go
package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hdanan/sycobench/internal/providers"
)

// EmbedCache is a persistent embedding cache layered over an
// EmbeddingSource. Entries are keyed by (sha256(text), embedding model
// id) so a re-analysis across runs never re-embeds a justification or
// response it has already paid for.
type EmbedCache struct {
	db    *badger.DB
	inner providers.EmbeddingSource
}

// OpenEmbedCache opens a BadgerDB-backed cache at dir wrapping inner.
// An empty dir opens an in-memory cache, used by tests and dry runs.
func OpenEmbedCache(dir string, inner providers.EmbeddingSource) (*EmbedCache, error) {
	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return &EmbedCache{db: db, inner: inner}, nil
}

// ModelID implements providers.EmbeddingSource.
func (c *EmbedCache) ModelID() string { return c.inner.ModelID() }

// Embed returns the cached vector for text when present, otherwise
// fetches it from the wrapped source and stores it. Provider failures
// are never cached.
func (c *EmbedCache) Embed(ctx context.Context, text string) ([]float64, error) {
	key := c.cacheKey(text)

	var cached []float64
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cached)
		})
	})
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("encode embedding for cache: %w", err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encoded)
	}); err != nil {
		return nil, fmt.Errorf("write embedding cache: %w", err)
	}
	return vec, nil
}

// Close closes the underlying database.
func (c *EmbedCache) Close() error { return c.db.Close() }

func (c *EmbedCache) cacheKey(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return fmt.Appendf(nil, "emb:%s:%x", c.inner.ModelID(), sum)
}
