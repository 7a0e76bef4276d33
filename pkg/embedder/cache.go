package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"
)

// CachingClient decorates a Client with a Badger-backed cache so repeated
// queries skip the embedding call entirely. Cache keys include the model
// name, so switching models never serves stale vectors.
type CachingClient struct {
	inner Client
	db    *badger.DB
	model string
}

// NewCachingClient opens (or creates) a Badger cache at path and wraps
// inner. An empty path opens an in-memory cache.
func NewCachingClient(inner Client, model, path string) (*CachingClient, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	return &CachingClient{inner: inner, db: db, model: model}, nil
}

// Embed generates embeddings, serving cached vectors where available.
func (c *CachingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if cached, ok := c.get(c.key(text)); ok {
			embeddings[i] = cached
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return embeddings, nil
	}

	fresh, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missing))
	}

	for j, vec := range fresh {
		embeddings[missingIdx[j]] = vec
		if err := c.put(c.key(missing[j]), vec); err != nil {
			return nil, fmt.Errorf("failed to cache embedding: %w", err)
		}
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *CachingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (c *CachingClient) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the cache and the wrapped client.
func (c *CachingClient) Close() error {
	if err := c.db.Close(); err != nil {
		return err
	}
	return c.inner.Close()
}

func (c *CachingClient) key(text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func (c *CachingClient) get(key []byte) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec = decodeVector(val)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return vec, true
}

func (c *CachingClient) put(key []byte, vec []float32) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encodeVector(vec))
	})
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
