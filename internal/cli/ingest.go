package cli

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"faqbot/internal/usecase"
)

var (
	ingestCollection string
	ingestReplace    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Load FAQ documents into the vector store",
	Long: `Load FAQ PDFs into their collections. Without arguments every configured
collection is ingested from ingest.patent_paths and ingest.bis_paths.
Paths may be files, directories or glob patterns.

Examples:
  faqbot ingest                                  # Ingest configured documents
  faqbot ingest -c bis_faqs "data/bis/**/*.pdf"  # Ingest extra BIS documents
  faqbot ingest --replace                        # Drop and rebuild collections`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "collection to ingest into (patent_faqs or bis_faqs)")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "delete the collection before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sources := GetConfig().Ingest.Sources()
	if len(args) > 0 {
		if ingestCollection == "" {
			return fmt.Errorf("--collection is required when paths are given")
		}
		sources = map[string][]string{ingestCollection: args}
	} else if ingestCollection != "" {
		paths, ok := sources[ingestCollection]
		if !ok {
			return fmt.Errorf("unknown collection %q", ingestCollection)
		}
		sources = map[string][]string{ingestCollection: paths}
	}

	a, err := buildApp(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Embedder: %s (%s, dimension %d)\n", a.embedder.ModelName(), a.embedder.Provider(), a.embedder.Dimension())

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		paths := make([]string, len(sources[name]))
		for i, p := range sources[name] {
			paths[i] = resolve(p)
		}

		if ingestReplace {
			if err := a.store.DeleteCollection(ctx, name); err != nil {
				return fmt.Errorf("failed to delete %s: %w", name, err)
			}
		}

		fmt.Printf("\nIngesting %s...\n", name)
		result, err := a.ingest.Ingest(ctx, name, paths, newProgress("Ingesting"))
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		printIngestResult(result)
	}

	return nil
}

func printIngestResult(result *usecase.IngestResult) {
	fmt.Printf("\nIngestion complete for %s:\n", result.Collection)
	fmt.Printf("  Files ingested: %d\n", result.FilesIngested)
	fmt.Printf("  Files skipped:  %d (unreadable)\n", result.FilesSkipped)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}

// newProgress returns a ProgressFunc drawing a bar with an ETA. The bar is
// created on the first call, once the total is known.
func newProgress(label string) usecase.ProgressFunc {
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	return func(processed, total int, current string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", label)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
