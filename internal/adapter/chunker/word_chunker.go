package chunker

import (
	"strings"

	"faqbot/internal/domain"
)

// WordChunker splits text into chunks of roughly size characters by greedily
// accumulating whitespace-separated words. A chunk is flushed as soon as its
// running length reaches size, so a chunk may overshoot by at most one word.
type WordChunker struct {
	size    int
	overlap int
}

// NewWordChunker creates a chunker. overlap is the number of trailing words
// of a flushed chunk that are repeated at the start of the next one; zero
// gives non-overlapping chunks.
func NewWordChunker(size, overlap int) *WordChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WordChunker{
		size:    size,
		overlap: overlap,
	}
}

// Split returns the chunk texts in document order. Empty or whitespace-only
// text yields no chunks.
func (c *WordChunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentSize := 0
	fresh := 0 // words added since the last flush

	for _, word := range words {
		current = append(current, word)
		currentSize += len(word) + 1
		fresh++

		if currentSize >= c.size {
			chunks = append(chunks, strings.Join(current, " "))
			current, currentSize = c.seed(current)
			fresh = 0
		}
	}

	if fresh > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// seed returns the overlap words carried into the next chunk. Carried words
// do not count toward the next flush threshold.
func (c *WordChunker) seed(flushed []string) ([]string, int) {
	if c.overlap == 0 {
		return nil, 0
	}
	n := c.overlap
	if n >= len(flushed) {
		n = len(flushed) - 1
	}
	if n <= 0 {
		return nil, 0
	}
	carried := make([]string, n)
	copy(carried, flushed[len(flushed)-n:])
	return carried, 0
}

// Chunks splits text and attaches source and sequential chunk ids.
func (c *WordChunker) Chunks(text, source string) []domain.Chunk {
	parts := c.Split(text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			Text: part,
			Metadata: domain.ChunkMetadata{
				Source:  source,
				ChunkID: i,
			},
		})
	}
	return chunks
}
