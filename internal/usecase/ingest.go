package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"faqbot/internal/port"
)

// probeQuery is the text used to check whether a collection holds anything.
const probeQuery = "probe"

// IngestUseCase loads FAQ documents into the vector store.
type IngestUseCase struct {
	store        port.VectorStore
	loader       port.Loader
	chunker      port.Chunker
	walker       port.FileWalker
	snapshotPath string
}

// NewIngestUseCase creates a new ingest use case. When snapshotPath is set
// the store is saved there after every ingestion.
func NewIngestUseCase(
	store port.VectorStore,
	loader port.Loader,
	chunker port.Chunker,
	walker port.FileWalker,
	snapshotPath string,
) *IngestUseCase {
	return &IngestUseCase{
		store:        store,
		loader:       loader,
		chunker:      chunker,
		walker:       walker,
		snapshotPath: snapshotPath,
	}
}

// IngestResult contains the results of an ingestion.
type IngestResult struct {
	Collection    string
	FilesIngested int
	FilesSkipped  int
	ChunksCreated int
	Errors        []string
}

// ProgressFunc is called after each file with the number of files done.
type ProgressFunc func(done, total int, path string)

// EnsureCollections creates each collection and fills those whose probe
// query comes back empty. Unreadable documents are logged and leave their
// collection empty. Write errors are returned.
func (u *IngestUseCase) EnsureCollections(ctx context.Context, sources map[string][]string) error {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := false
	for _, name := range names {
		if err := u.store.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}

		results, err := u.store.Query(ctx, name, probeQuery, 1)
		if err != nil {
			return fmt.Errorf("failed to probe collection %s: %w", name, err)
		}
		if len(results) > 0 {
			slog.Debug("collection already populated", "collection", name)
			continue
		}

		slog.Info("populating collection", "collection", name, "paths", sources[name])
		res, err := u.ingest(ctx, name, sources[name], nil)
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			slog.Error("error ingesting document", "collection", name, "error", e)
		}
		changed = changed || res.ChunksCreated > 0
	}

	if changed {
		return u.save()
	}
	return nil
}

// Ingest loads every file matched by patterns into collection, replacing
// chunks with the same ids.
func (u *IngestUseCase) Ingest(ctx context.Context, collection string, patterns []string, progress ProgressFunc) (*IngestResult, error) {
	if err := u.store.CreateCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	result, err := u.ingest(ctx, collection, patterns, progress)
	if err != nil {
		return result, err
	}

	if result.ChunksCreated > 0 {
		if err := u.save(); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (u *IngestUseCase) ingest(ctx context.Context, collection string, patterns []string, progress ProgressFunc) (*IngestResult, error) {
	result := &IngestResult{Collection: collection}

	files, err := u.walker.Expand(patterns)
	if err != nil {
		return result, fmt.Errorf("failed to expand paths: %w", err)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n, err := u.ingestFile(ctx, collection, path)
		switch {
		case err != nil:
			return result, fmt.Errorf("failed to ingest %s: %w", path, err)
		case n == 0:
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("no text extracted from %s", path))
		default:
			result.FilesIngested++
			result.ChunksCreated += n
		}

		if progress != nil {
			progress(i+1, len(files), path)
		}
	}

	return result, nil
}

// ingestFile returns the number of chunks written. An unreadable file yields
// zero chunks and no error.
func (u *IngestUseCase) ingestFile(ctx context.Context, collection, path string) (int, error) {
	text := u.loader.LoadText(path)
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	chunks := u.chunker.Chunks(text, path)
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := u.store.Upsert(ctx, collection, chunks); err != nil {
		return 0, err
	}

	slog.Info("ingested document", "collection", collection, "path", path, "chunks", len(chunks))
	return len(chunks), nil
}

func (u *IngestUseCase) save() error {
	if u.snapshotPath == "" {
		return nil
	}
	if err := u.store.Save(u.snapshotPath); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
