package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"faqbot/internal/domain"
	"faqbot/internal/port"
	"faqbot/internal/usecase"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRenderPrompt(t *testing.T) {
	out, err := renderPrompt(PromptData{
		Messages: []port.ChatMessage{
			{Role: "system", Content: usecase.SystemPrompt},
			{Role: "user", Content: "Context:\nBIS certification lasts 2 years.\n\nQuestion: How long?"},
		},
		Route:            domain.RouteBIS,
		GenerationConfig: usecase.DefaultGenerationConfig(),
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"=== SYSTEM ===", "=== USER ===", "BIS certification lasts 2 years.", "route: bis", "model: " + usecase.DefaultModel} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestResolve(t *testing.T) {
	old := rootDir
	defer func() { rootDir = old }()
	rootDir = filepath.Join("/srv", "faqbot")

	if got := resolve("data/faq.pdf"); got != filepath.Join("/srv", "faqbot", "data", "faq.pdf") {
		t.Errorf("unexpected relative resolve %q", got)
	}
	if got := resolve("/abs/faq.pdf"); got != "/abs/faq.pdf" {
		t.Errorf("absolute paths must be kept, got %q", got)
	}
	if got := resolve(""); got != "" {
		t.Errorf("empty path must stay empty, got %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"ingest", "search", "prompt", "ask", "chat", "serve", "history", "migrate"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
