package cli

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"faqbot/internal/domain"
	"faqbot/internal/port"
	"faqbot/internal/usecase"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var promptQuery string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the chat messages that would be sent for a question",
	Long: `Route and retrieve for a question, then print the system prompt and the
context-bearing user message without calling the chat model.

Examples:
  faqbot prompt -q "What is a provisional patent application?"`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (required)")
	promptCmd.MarkFlagRequired("query")
}

type PromptData struct {
	Messages []port.ChatMessage
	Route    domain.Route
	usecase.GenerationConfig
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	q, err := usecase.ValidateQuestion(promptQuery)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, buildOptions{ensure: true})
	if err != nil {
		return err
	}
	defer a.Close()

	route := a.router.Route(q)
	messages, err := a.generator.BuildPrompt(ctx, q, route)
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	out, err := renderPrompt(PromptData{
		Messages:         messages,
		Route:            route,
		GenerationConfig: a.generator.Config(),
	})
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}

func renderPrompt(data PromptData) (string, error) {
	tmplContent, err := promptTemplates.ReadFile("templates/prompt.txt")
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("prompt").Funcs(template.FuncMap{"upper": strings.ToUpper}).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
