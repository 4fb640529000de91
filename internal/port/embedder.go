package port

import (
	"context"

	"faqbot/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Generate returns one vector per non-blank input text, in input order.
	Generate(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension of the active provider.
	Dimension() int

	// Provider names the backend producing vectors, e.g. "remote" or "local".
	Provider() string

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore persists chunks with their embeddings per named collection and
// answers nearest-neighbour queries.
type VectorStore interface {
	Retriever

	// CreateCollection registers a collection. Calling it twice is a no-op.
	CreateCollection(ctx context.Context, name string) error

	// Upsert embeds and writes chunks. Re-upserting a chunk with the same
	// source basename and chunk id replaces the earlier record.
	Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error

	// Count returns the number of records in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// DeleteCollection removes every record of a collection.
	DeleteCollection(ctx context.Context, name string) error

	// Save and Load persist the store to disk. Stores backed by a managed
	// service treat both as no-ops.
	Save(path string) error
	Load(path string) error

	Close() error
}
