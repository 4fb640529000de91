package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"faqbot/internal/adapter/suggest"
	"faqbot/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Long: `Open an interactive chat. Previous turns are loaded from the history file
and every answer is appended to it.

Type /clear to reset the history and /quit (or Ctrl+C) to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx, buildOptions{chat: true, ensure: true})
	if err != nil {
		return err
	}
	defer a.Close()

	m := tui.New(ctx, a.session, suggest.ExampleQuestions())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
