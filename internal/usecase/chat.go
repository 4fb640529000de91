package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"faqbot/internal/adapter/history"
	"faqbot/internal/adapter/router"
	"faqbot/internal/adapter/suggest"
	"faqbot/internal/domain"
)

const (
	MinQuestionLength = 1
	MaxQuestionLength = 1000
)

// Reply is everything a surface needs to render one answered question.
type Reply struct {
	Answer      domain.Answer `json:"answer"`
	Route       domain.Route  `json:"route"`
	Suggestions []string      `json:"suggestions"`
}

// ChatSession ties routing, generation, history and suggestions together for
// one conversation.
type ChatSession struct {
	router    *router.Router
	generator *Generator
	history   *history.Store
	suggester *suggest.StaticSuggester

	mu    sync.Mutex
	stats domain.SessionStats
	now   func() time.Time
}

func NewChatSession(r *router.Router, g *Generator, h *history.Store, s *suggest.StaticSuggester) *ChatSession {
	return &ChatSession{
		router:    r,
		generator: g,
		history:   h,
		suggester: s,
		now:       time.Now,
	}
}

// ValidateQuestion trims q and checks its length.
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	n := utf8.RuneCountInString(q)

	switch {
	case n == 0:
		return "", fmt.Errorf("%w: Please enter a question.", ErrInvalidQuestion)
	case n < MinQuestionLength:
		return "", fmt.Errorf("%w: Question must be at least %d characters long.", ErrInvalidQuestion, MinQuestionLength)
	case n > MaxQuestionLength:
		return "", fmt.Errorf("%w: Question must be less than %d characters long.", ErrInvalidQuestion, MaxQuestionLength)
	}
	return q, nil
}

// Ask answers question and records both turns. Only invalid input is an
// error; generation failures come back as the apology.
func (s *ChatSession) Ask(ctx context.Context, question string) (Reply, error) {
	q, err := ValidateQuestion(question)
	if err != nil {
		return Reply{}, err
	}

	route := s.router.Route(q)
	answer := s.generator.Generate(ctx, q, route, s.history.Recent(historyTurns))

	source := ""
	if answer.Source != nil {
		source = *answer.Source
	}
	s.history.AddExchange(q, answer.Text, source)

	s.record(answer.Text != Apology)

	return Reply{
		Answer:      answer,
		Route:       route,
		Suggestions: s.suggester.Suggest(q),
	}, nil
}

func (s *ChatSession) record(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.stats.TotalQueries++
	if success {
		s.stats.SuccessfulResponses++
	}
	s.stats.LastQueryTime = &now
}

func (s *ChatSession) Stats() domain.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	if stats.LastQueryTime != nil {
		t := *stats.LastQueryTime
		stats.LastQueryTime = &t
	}
	return stats
}

func (s *ChatSession) History() []domain.ChatTurn {
	return s.history.Turns()
}

func (s *ChatSession) ClearHistory() {
	s.history.Clear()
}

func (s *ChatSession) Generator() *Generator {
	return s.generator
}
