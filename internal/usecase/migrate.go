package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"faqbot/internal/adapter/store"
	"faqbot/internal/domain"
	"faqbot/internal/port"
)

const (
	DefaultMigrateNamespace = "migrated"
	migrateBatchSize        = 50
	dedupePrefixLength      = 100
)

var verifyQueries = []string{
	"patent application process",
	"patent protection period",
	"BIS certification process",
	"BIS certificate validity",
	"quality standards",
}

type MigrateOptions struct {
	Source    string
	Namespace string
	DryRun    bool
	Verify    bool
}

type MigrateStats struct {
	Found    int `json:"found"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// SuccessRate is migrated over found, as a percentage.
func (s MigrateStats) SuccessRate() float64 {
	if s.Found == 0 {
		return 0
	}
	return float64(s.Migrated) / float64(s.Found) * 100
}

type VerifyResult struct {
	Query    string  `json:"query"`
	Hits     int     `json:"hits"`
	TopScore float64 `json:"top_score"`
	Preview  string  `json:"preview"`
}

type MigrateResult struct {
	Stats  MigrateStats
	Verify []VerifyResult
}

// MigrateUseCase copies a local snapshot into a namespace of another store.
// Texts are embedded again by the destination so dimensions always match.
type MigrateUseCase struct {
	dest port.VectorStore
}

func NewMigrateUseCase(dest port.VectorStore) *MigrateUseCase {
	return &MigrateUseCase{dest: dest}
}

// Migrate runs the copy. progress, when set, is called after each batch.
func (u *MigrateUseCase) Migrate(ctx context.Context, opts MigrateOptions, progress ProgressFunc) (*MigrateResult, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultMigrateNamespace
	}

	snap, err := store.ReadSnapshot(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	result := &MigrateResult{}
	chunks := dedupe(snapshotChunks(snap), &result.Stats)
	result.Stats.Found = len(chunks)

	slog.Info("migrating snapshot", "source", opts.Source, "namespace", opts.Namespace,
		"found", result.Stats.Found, "skipped", result.Stats.Skipped, "dry_run", opts.DryRun)

	if opts.DryRun || len(chunks) == 0 {
		return result, nil
	}

	if err := u.dest.CreateCollection(ctx, opts.Namespace); err != nil {
		return result, fmt.Errorf("failed to create namespace %s: %w", opts.Namespace, err)
	}

	for i := 0; i < len(chunks); i += migrateBatchSize {
		end := min(i+migrateBatchSize, len(chunks))
		batch := chunks[i:end]

		if err := u.dest.Upsert(ctx, opts.Namespace, batch); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			slog.Error("error migrating batch", "batch", i/migrateBatchSize+1, "error", err)
			result.Stats.Errors += len(batch)
		} else {
			result.Stats.Migrated += len(batch)
		}

		if progress != nil {
			progress(end, len(chunks), "")
		}
	}

	if opts.Verify {
		result.Verify = u.verify(ctx, opts.Namespace)
	}
	return result, nil
}

func (u *MigrateUseCase) verify(ctx context.Context, namespace string) []VerifyResult {
	out := make([]VerifyResult, 0, len(verifyQueries))
	for _, q := range verifyQueries {
		res := VerifyResult{Query: q}
		results, err := u.dest.Query(ctx, namespace, q, 3)
		if err != nil {
			slog.Warn("verification query failed", "query", q, "error", err)
		}
		res.Hits = len(results)
		if len(results) > 0 {
			res.TopScore = results[0].Score
			res.Preview = preview(results[0].Chunk.Text, dedupePrefixLength)
		}
		out = append(out, res)
	}
	return out
}

// snapshotChunks flattens every collection, in name order, back into chunks.
func snapshotChunks(snap *store.Snapshot) []domain.Chunk {
	names := make([]string, 0, len(snap.Records))
	for name := range snap.Records {
		names = append(names, name)
	}
	sort.Strings(names)

	var chunks []domain.Chunk
	for _, name := range names {
		for _, r := range snap.Records[name] {
			chunks = append(chunks, r.Chunk())
		}
	}
	return chunks
}

// dedupe keeps the first chunk for each distinct text prefix.
func dedupe(chunks []domain.Chunk, stats *MigrateStats) []domain.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := prefix(c.Text, dedupePrefixLength)
		if seen[key] {
			stats.Skipped++
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func preview(s string, n int) string {
	return strings.ReplaceAll(prefix(s, n), "\n", " ")
}
