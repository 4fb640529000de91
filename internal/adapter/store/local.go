package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"faqbot/internal/adapter/cache"
	"faqbot/internal/domain"
)

// LocalStore keeps every collection in memory as a flat index and searches
// it exhaustively by squared L2 distance. Results come back nearest first,
// so lower scores are better. Save and Load snapshot the store to a bbolt
// file.
type LocalStore struct {
	mu          sync.RWMutex
	embedder    *cache.CachedEmbedder
	collections map[string]*flatIndex
	opts        options
}

// flatIndex holds records in insertion order. The dimension is fixed when
// the collection is created.
type flatIndex struct {
	dimension int
	records   []Record
	byID      map[string]int
}

func newFlatIndex(dimension int) *flatIndex {
	return &flatIndex{
		dimension: dimension,
		byID:      make(map[string]int),
	}
}

func (f *flatIndex) put(r Record) {
	if i, ok := f.byID[r.ID]; ok {
		f.records[i] = r
		return
	}
	f.byID[r.ID] = len(f.records)
	f.records = append(f.records, r)
}

// NewLocalStore creates an empty in-memory store.
func NewLocalStore(embedder *cache.CachedEmbedder, opts ...Option) *LocalStore {
	return &LocalStore{
		embedder:    embedder,
		collections: make(map[string]*flatIndex),
		opts:        newOptions(options{batchSize: DefaultBatchSize}, opts...),
	}
}

func (s *LocalStore) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		s.collections[name] = newFlatIndex(s.embedder.Dimension())
	}
	return nil
}

func (s *LocalStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	records, err := buildRecords(ctx, s.embedder, collection, chunks)
	if err != nil {
		return err
	}
	if err := s.CreateCollection(ctx, collection); err != nil {
		return err
	}

	return writeBatches(ctx, records, s.opts.batchSize, s.opts.batchPause, func(ctx context.Context, batch []Record) error {
		return s.put(collection, batch)
	})
}

func (s *LocalStore) put(collection string, batch []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.collections[collection]
	for _, r := range batch {
		if len(r.Values) != idx.dimension {
			return fmt.Errorf("%w: collection %s expects %d, got %d", ErrDimensionMismatch, collection, idx.dimension, len(r.Values))
		}
	}
	for _, r := range batch {
		idx.put(r)
	}
	return nil
}

// Query returns the k records closest to text. A missing or empty
// collection yields no results and no error.
func (s *LocalStore) Query(ctx context.Context, collection, text string, k int) ([]domain.QueryResult, error) {
	s.mu.RLock()
	idx, ok := s.collections[collection]
	empty := !ok || len(idx.records) == 0
	s.mu.RUnlock()

	if empty || k <= 0 {
		return []domain.QueryResult{}, nil
	}

	vec, err := s.embedder.EmbedOne(ctx, text)
	if err != nil {
		slog.Error("error embedding query", "collection", collection, "error", err)
		return []domain.QueryResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vec) != idx.dimension {
		return nil, fmt.Errorf("%w: collection %s expects %d, got %d", ErrDimensionMismatch, collection, idx.dimension, len(vec))
	}

	type scored struct {
		pos  int
		dist float64
	}

	scores := make([]scored, len(idx.records))
	for i, r := range idx.records {
		scores[i] = scored{pos: i, dist: squaredL2(vec, r.Values)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].dist < scores[j].dist
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.QueryResult, k)
	for i := 0; i < k; i++ {
		results[i] = domain.QueryResult{
			Chunk: idx.records[scores[i].pos].Chunk(),
			Score: scores[i].dist,
		}
	}

	return results, nil
}

func (s *LocalStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, ok := s.collections[collection]; ok {
		return len(idx.records), nil
	}
	return 0, nil
}

func (s *LocalStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Collections returns the names of all collections.
func (s *LocalStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns a copy of the records of a collection in insertion order.
func (s *LocalStore) Records(collection string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.collections[collection]
	if !ok {
		return nil
	}
	out := make([]Record, len(idx.records))
	copy(out, idx.records)
	return out
}

func (s *LocalStore) Close() error {
	return nil
}

// squaredL2 is the squared Euclidean distance between two vectors.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
