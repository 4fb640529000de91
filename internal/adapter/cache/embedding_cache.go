package cache

import (
	"context"
	"fmt"
	"sync"

	"faqbot/internal/port"
)

// EmbeddingCache maps exact text to its embedding for the life of the
// process. Keys are not normalised: "Patent" and "patent " are distinct.
// The cache is unbounded.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
	hits    uint64
	misses  uint64
}

func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		entries: make(map[string][]float32),
	}
}

func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec, ok := c.entries[text]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return vec, ok
}

func (c *EmbeddingCache) Put(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = vec
}

func (c *EmbeddingCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the number of cache hits and misses so far.
func (c *EmbeddingCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Invalidate drops every entry, e.g. after the embedding provider changed.
func (c *EmbeddingCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]float32)
}

// CachedEmbedder resolves embeddings through an EmbeddingCache, calling the
// wrapped embedder only for texts not seen before.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *EmbeddingCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

// Embed returns one vector per text, in order. Blank texts are passed to the
// embedder unchanged so its validation rules apply.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	seen := make(map[string]int)

	for i, text := range texts {
		if vec, ok := e.cache.Get(text); ok {
			out[i] = vec
			continue
		}
		if _, dup := seen[text]; !dup {
			seen[text] = len(missing)
			missing = append(missing, text)
		}
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := e.embedder.Generate(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, &CountMismatchError{Want: len(missing), Got: len(vectors)}
	}

	for i, text := range missing {
		e.cache.Put(text, vectors[i])
	}
	for _, i := range missingIdx {
		out[i] = vectors[seen[texts[i]]]
	}

	return out, nil
}

// EmbedOne embeds a single text.
func (e *CachedEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

// Embedder returns the wrapped embedder.
func (e *CachedEmbedder) Embedder() port.Embedder {
	return e.embedder
}

// CountMismatchError reports an embedder that returned fewer vectors than
// texts, which happens when some inputs were blank.
type CountMismatchError struct {
	Want, Got int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("embedder returned %d vectors for %d texts", e.Got, e.Want)
}
