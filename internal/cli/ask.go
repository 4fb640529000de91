package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"faqbot/internal/server"
)

var (
	askQuestion string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question",
	Long: `Answer one question from the FAQ documents and record it in the chat
history.

Examples:
  faqbot ask -q "How long is a patent valid in India?"
  faqbot ask -q "What is BIS certification?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "query", "q", "", "question (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx, buildOptions{chat: true, ensure: true})
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.session.Ask(ctx, askQuestion)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(server.NewAskResponse(reply), "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(reply.Answer.Text)
	if reply.Answer.Source != nil {
		fmt.Printf("\nSource: %s\n", *reply.Answer.Source)
	}
	if len(reply.Suggestions) > 0 {
		fmt.Println("\nYou might also ask:")
		for _, s := range reply.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}
