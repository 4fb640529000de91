package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"faqbot/internal/adapter/history"
)

var historyOutput string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show, export or clear the chat history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved chat history",
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved turn",
	RunE:  runHistoryClear,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the chat history as Markdown",
	Long: `Export the chat history as Markdown, to stdout or to a file.

Examples:
  faqbot history export
  faqbot history export -o chat.md`,
	RunE: runHistoryExport,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyClearCmd, historyExportCmd)
	historyExportCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "output file (default stdout)")
}

func openHistory() *history.Store {
	c := GetConfig().History
	return history.New(resolve(c.Path), c.MaxTurns)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	turns := openHistory().Turns()
	if len(turns) == 0 {
		fmt.Println("No chat history.")
		return nil
	}
	for _, t := range turns {
		fmt.Printf("[%s] %s: %s\n", t.Timestamp, t.Role, t.Content)
		if t.Source != "" {
			fmt.Printf("    source: %s\n", t.Source)
		}
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	h := openHistory()
	h.Clear()
	if err := h.Save(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Printf("Cleared %s\n", h.Path())
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	out := history.Export(openHistory().Turns(), time.Now())
	if historyOutput == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(historyOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Exported to %s\n", historyOutput)
	return nil
}
