package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"faqbot/config"
	"faqbot/internal/adapter/cache"
	"faqbot/internal/adapter/embedding"
	"faqbot/internal/adapter/router"
	"faqbot/internal/adapter/store"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding faqbot.yaml and the data directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of results per collection")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (provider, snapshot dimension)")
		fmt.Println("  2. Routing (which collections the query reaches)")
		fmt.Println("  3. Retrieval quality (similarity of the nearest chunks)")
		os.Exit(1)
	}

	_ = godotenv.Load(filepath.Join(*dir, ".env"))

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	embedder := cache.NewCachedEmbedder(embedding.Select(ctx, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.APIKeyEnv, cfg.Embedding.BaseURL), cache.NewEmbeddingCache())

	snapshot := filepath.Join(*dir, cfg.SnapshotPath())
	st := store.NewLocalStore(embedder)
	if err := st.Load(snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot (run 'faqbot ingest' first): %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	for _, c := range st.Collections() {
		n, _ := st.Count(ctx, c)
		fmt.Printf("Collection %-12s %d records\n", c, n)
	}
	active := embedder.Embedder()
	fmt.Printf("Model: %s (%s)\n", active.ModelName(), active.Provider())
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	r := router.New(cfg.Router.PatentKeywords, cfg.Router.BISKeywords)
	patent, bis := r.Scores(*query)
	route := r.Route(*query)

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Printf("Route: %s (patent=%d, bis=%d)\n", route, patent, bis)
	fmt.Println(strings.Repeat("-", 70))

	var total float64
	var hits int
	var top float64
	for _, collection := range route.Collections() {
		start := time.Now()
		results, err := st.Query(ctx, collection, *query, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		latency := time.Since(start)

		fmt.Printf("\n%s: top %d matches in %s\n\n", collection, len(results), latency.Round(time.Microsecond))
		for i, res := range results {
			sim := similarity(res.Score)
			total += sim
			hits++
			if sim > top {
				top = sim
			}

			preview := []rune(strings.ReplaceAll(res.Chunk.Text, "\n", " "))
			if len(preview) > 150 {
				preview = append(preview[:150], []rune("...")...)
			}

			fmt.Printf("%d. [%s %.3f] %s#%d\n", i+1, rating(sim), sim, filepath.Base(res.Chunk.Metadata.Source), res.Chunk.Metadata.ChunkID)
			fmt.Printf("   %s\n\n", string(preview))
		}
	}

	if hits == 0 {
		fmt.Println("No results - collections are empty.")
		return
	}

	avgScore := total / float64(hits)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", top)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-ingesting")
	}
}

// similarity converts a squared L2 distance between unit vectors into cosine
// similarity.
func similarity(distance float64) float64 {
	return 1 - distance/2
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	}
	return "LOW"
}
