package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"faqbot/internal/adapter/cache"
	"faqbot/internal/domain"
)

const (
	// MaxContentLength caps the stored chunk text. Longer chunks are cut and
	// the removed tail is not recoverable from the store.
	MaxContentLength = 40000

	DefaultBatchSize  = 100
	DefaultBatchPause = 100 * time.Millisecond
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Record is the stored form of a chunk.
type Record struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

type RecordMetadata struct {
	PageContent string `json:"page_content"`
	Source      string `json:"source"`
	ChunkID     string `json:"chunk_id"`
}

// RecordID derives the stable id of a chunk so re-ingesting the same file
// overwrites rather than duplicates. Both Windows and Unix separators are
// stripped from the source path.
func RecordID(collection, source string, chunkID int) string {
	base := source
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		base = filepath.Base(source)
	}
	return fmt.Sprintf("%s_%s_%d", collection, base, chunkID)
}

// Truncate cuts text to at most MaxContentLength runes.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxContentLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxContentLength])
}

// Chunk converts a record back into a domain chunk.
func (r Record) Chunk() domain.Chunk {
	id, _ := strconv.Atoi(r.Metadata.ChunkID)
	return domain.Chunk{
		Text: r.Metadata.PageContent,
		Metadata: domain.ChunkMetadata{
			Source:  r.Metadata.Source,
			ChunkID: id,
		},
	}
}

// buildRecords embeds chunk texts through the cache and assembles records.
func buildRecords(ctx context.Context, embedder *cache.CachedEmbedder, collection string, chunks []domain.Chunk) ([]Record, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{
			ID:     RecordID(collection, c.Metadata.Source, c.Metadata.ChunkID),
			Values: vectors[i],
			Metadata: RecordMetadata{
				PageContent: Truncate(c.Text),
				Source:      c.Metadata.Source,
				ChunkID:     strconv.Itoa(c.Metadata.ChunkID),
			},
		}
	}
	return records, nil
}

// writeBatches calls write for consecutive slices of at most size records,
// sleeping pause between slices.
func writeBatches(ctx context.Context, records []Record, size int, pause time.Duration, write func(context.Context, []Record) error) error {
	if size <= 0 {
		size = DefaultBatchSize
	}

	for i := 0; i < len(records); i += size {
		if i > 0 && pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}

		end := i + size
		if end > len(records) {
			end = len(records)
		}
		if err := write(ctx, records[i:end]); err != nil {
			return fmt.Errorf("failed to write batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

type options struct {
	batchSize  int
	batchPause time.Duration
}

// Option configures how a store writes records.
type Option func(*options)

func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

func WithBatchPause(d time.Duration) Option {
	return func(o *options) {
		o.batchPause = d
	}
}

func newOptions(defaults options, opts ...Option) options {
	o := defaults
	for _, fn := range opts {
		fn(&o)
	}
	if o.batchSize <= 0 {
		o.batchSize = DefaultBatchSize
	}
	return o
}
