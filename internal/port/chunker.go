package port

import "faqbot/internal/domain"

type Chunker interface {
	Chunks(text, source string) []domain.Chunk
}
