package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"fmt"
	"strings"
	"sync"
	"testing"

	"faqbot/internal/adapter/history"
	"faqbot/internal/adapter/router"
	"faqbot/internal/adapter/suggest"
	"faqbot/internal/domain"
)

func newTestSession(t *testing.T, r *fakeRetriever, m *fakeModel) *ChatSession {
	t.Helper()
	h := history.New(filepath.Join(t.TempDir(), "chat_history.json"), 10)
	return NewChatSession(router.New(nil, nil), newTestGenerator(r, m), h, suggest.NewStaticSuggester())
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"  What is a patent?  ", "What is a patent?", false},
		{"", "", true},
		{"   \n\t", "", true},
		{"a", "a", false},
		{strings.Repeat("é", 1000), strings.Repeat("é", 1000), false},
		{strings.Repeat("x", 1001), "", true},
	}

	for _, tt := range tests {
		got, err := ValidateQuestion(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateQuestion(%.20q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidQuestion) {
			t.Errorf("expected ErrInvalidQuestion, got %v", err)
		}
		if got != tt.want {
			t.Errorf("ValidateQuestion(%.20q) = %.20q", tt.input, got)
		}
	}
}

func TestAskRecordsTurnsAndStats(t *testing.T) {
	r := &fakeRetriever{results: map[string][]domain.QueryResult{
		domain.BISCollection: {result("BIS certification lasts 2 years.", "data/bis.pdf")},
	}}
	s := newTestSession(t, r, &fakeModel{answer: "It lasts 2 years."})

	reply, err := s.Ask(context.Background(), "What is BIS certification?")
	if err != nil {
		t.Fatal(err)
	}

	if reply.Route != domain.RouteBIS {
		t.Errorf("expected bis route, got %s", reply.Route)
	}
	if len(reply.Suggestions) == 0 || reply.Suggestions[0] != "What is the BIS certification process?" {
		t.Errorf("unexpected suggestions %v", reply.Suggestions)
	}

	turns := s.History()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[0].Source != "" {
		t.Errorf("unexpected user turn %+v", turns[0])
	}
	if turns[1].Role != domain.RoleAssistant || turns[1].Source != "data/bis.pdf" {
		t.Errorf("unexpected assistant turn %+v", turns[1])
	}

	stats := s.Stats()
	if stats.TotalQueries != 1 || stats.SuccessfulResponses != 1 || stats.LastQueryTime == nil {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestConcurrentAsksKeepTurnsPaired(t *testing.T) {
	r := &fakeRetriever{results: map[string][]domain.QueryResult{
		domain.PatentCollection: {result("A patent lasts 20 years.", "patent.pdf")},
	}}
	h := history.New(filepath.Join(t.TempDir(), "chat_history.json"), 100)
	s := NewChatSession(router.New(nil, nil), newTestGenerator(r, &fakeModel{answer: "Twenty years."}), h, suggest.NewStaticSuggester())

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Ask(context.Background(), fmt.Sprintf("patent question %d", i)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	turns := s.History()
	if len(turns) != 2*n {
		t.Fatalf("expected %d turns, got %d", 2*n, len(turns))
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != domain.RoleUser || turns[i+1].Role != domain.RoleAssistant {
			t.Fatalf("turns %d and %d are not a question and its answer: %s, %s", i, i+1, turns[i].Role, turns[i+1].Role)
		}
	}
	if stats := s.Stats(); stats.TotalQueries != n {
		t.Errorf("expected %d queries, got %d", n, stats.TotalQueries)
	}
}

func TestAskCountsFailures(t *testing.T) {
	s := newTestSession(t, &fakeRetriever{}, &fakeModel{err: errModelDown})

	reply, err := s.Ask(context.Background(), "patent?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Answer.Text != Apology {
		t.Errorf("expected apology, got %q", reply.Answer.Text)
	}

	stats := s.Stats()
	if stats.TotalQueries != 1 || stats.SuccessfulResponses != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.SuccessRate() != 0 {
		t.Errorf("expected 0%% success, got %f", stats.SuccessRate())
	}
}

func TestAskRejectsInvalidInput(t *testing.T) {
	m := &fakeModel{answer: "x"}
	s := newTestSession(t, &fakeRetriever{}, m)

	if _, err := s.Ask(context.Background(), "   "); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("expected ErrInvalidQuestion, got %v", err)
	}
	if len(m.requests) != 0 || len(s.History()) != 0 || s.Stats().TotalQueries != 0 {
		t.Error("invalid input should not reach the model or history")
	}
}

func TestClearHistory(t *testing.T) {
	s := newTestSession(t, &fakeRetriever{}, &fakeModel{answer: "x"})
	if _, err := s.Ask(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	s.ClearHistory()
	if len(s.History()) != 0 {
		t.Error("history not cleared")
	}
}
