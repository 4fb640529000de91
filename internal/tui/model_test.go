package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"faqbot/internal/domain"
	"faqbot/internal/usecase"
)

type fakeSession struct {
	turns   []domain.ChatTurn
	asked   []string
	err     error
	cleared bool
}

func (s *fakeSession) Ask(ctx context.Context, q string) (usecase.Reply, error) {
	s.asked = append(s.asked, q)
	if s.err != nil {
		return usecase.Reply{}, s.err
	}
	src := "data/patent.pdf"
	return usecase.Reply{
		Answer:      domain.Answer{Text: "Twenty years.", Source: &src},
		Route:       domain.RoutePatent,
		Suggestions: []string{"How do I file a patent?"},
	}, nil
}

func (s *fakeSession) History() []domain.ChatTurn { return s.turns }

func (s *fakeSession) ClearHistory() {
	s.cleared = true
	s.turns = nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func enter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestAskRoundTrip(t *testing.T) {
	sess := &fakeSession{}
	m := sized(New(context.Background(), sess, []string{"What is BIS?"}))

	if !strings.Contains(m.View(), "What is BIS?") {
		t.Error("expected example questions on an empty transcript")
	}

	m, cmd := enter(t, m, "How long is a patent valid?")
	if !m.busy || cmd == nil {
		t.Fatal("expected the model to be waiting for an answer")
	}

	next, _ := m.Update(answerMsg{
		question: "How long is a patent valid?",
		reply:    mustAsk(t, sess, "How long is a patent valid?"),
	})
	m = next.(Model)

	if m.busy {
		t.Error("expected busy to be cleared")
	}
	if len(m.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.entries))
	}
	if m.entries[1].source != "data/patent.pdf" {
		t.Errorf("unexpected source %q", m.entries[1].source)
	}
	if !strings.Contains(m.status, "patent") {
		t.Errorf("expected route in status, got %q", m.status)
	}
	if !strings.Contains(m.renderTranscript(), "Twenty years.") {
		t.Error("expected answer in transcript")
	}
}

func mustAsk(t *testing.T, s *fakeSession, q string) usecase.Reply {
	t.Helper()
	r, err := s.Ask(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestInvalidQuestionStaysLocal(t *testing.T) {
	sess := &fakeSession{}
	m := sized(New(context.Background(), sess, nil))

	m, cmd := enter(t, m, strings.Repeat("a", usecase.MaxQuestionLength+1))
	if cmd != nil || m.busy {
		t.Error("an invalid question must not be sent")
	}
	if !strings.HasPrefix(m.status, "Question must be less than") {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestAskError(t *testing.T) {
	sess := &fakeSession{err: errors.New("boom")}
	m := sized(New(context.Background(), sess, nil))

	next, _ := m.Update(answerMsg{question: "x", err: sess.err})
	m = next.(Model)
	if m.status != "Error: boom" || len(m.entries) != 0 {
		t.Errorf("unexpected state status=%q entries=%d", m.status, len(m.entries))
	}
}

func TestClearCommand(t *testing.T) {
	sess := &fakeSession{turns: []domain.ChatTurn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}}
	m := sized(New(context.Background(), sess, nil))
	if len(m.entries) != 2 {
		t.Fatalf("expected saved history to be shown, got %d entries", len(m.entries))
	}

	m, _ = enter(t, m, "/clear")
	if !sess.cleared || len(m.entries) != 0 {
		t.Error("expected history to be cleared")
	}
}

func TestQuitKeys(t *testing.T) {
	m := sized(New(context.Background(), &fakeSession{}, nil))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
