package port

import (
	"context"

	"faqbot/internal/domain"
)

// Retriever returns the top-k chunks of one collection for a query.
type Retriever interface {
	Query(ctx context.Context, collection, text string, k int) ([]domain.QueryResult, error)
}

// Loader extracts plain text from a document on disk.
type Loader interface {
	LoadText(path string) string
}
