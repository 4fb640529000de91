package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"faqbot/internal/domain"
)

var (
	searchText       string
	searchTopK       int
	searchJSON       bool
	searchCollection string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the FAQ chunks retrieved for a question",
	Long: `Route a question and print the nearest chunks of each matching collection
without calling the chat model.

Examples:
  faqbot search -q "patent renewal fee"
  faqbot search -q "hallmark" -c bis_faqs --top-k 5 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results per collection (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "", "query one collection instead of routing")
	searchCmd.MarkFlagRequired("query")
}

type searchResult struct {
	Collection string  `json:"collection"`
	Source     string  `json:"source"`
	ChunkID    int     `json:"chunk_id"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx, buildOptions{ensure: true})
	if err != nil {
		return err
	}
	defer a.Close()

	topK := a.cfg.Retrieval.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	route := a.router.Route(searchText)
	collections := route.Collections()
	if searchCollection != "" {
		collections = []string{searchCollection}
	}

	var results []searchResult
	for _, collection := range collections {
		hits, err := a.store.Query(ctx, collection, searchText, topK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		for _, h := range hits {
			results = append(results, toSearchResult(collection, h))
		}
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s (route: %s)\n\n", len(results), searchText, route)
	for i, r := range results {
		fmt.Printf("--- [%d] %s %s#%d (score: %.4f) ---\n", i+1, r.Collection, r.Source, r.ChunkID, r.Score)
		text := []rune(r.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}

	return nil
}

func toSearchResult(collection string, h domain.QueryResult) searchResult {
	return searchResult{
		Collection: collection,
		Source:     h.Chunk.Metadata.Source,
		ChunkID:    h.Chunk.Metadata.ChunkID,
		Score:      h.Score,
		Text:       h.Chunk.Text,
	}
}
