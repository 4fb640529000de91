// Package history persists chat turns to a JSON file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"faqbot/internal/domain"
)

const (
	DefaultPath     = "chat_history.json"
	DefaultMaxTurns = 10
)

// Store keeps the most recent turns in memory and rewrites the whole file
// after every change.
type Store struct {
	mu    sync.Mutex
	path  string
	max   int
	turns []domain.ChatTurn
	now   func() time.Time
}

// New opens the history at path. A missing file starts empty, and so does a
// corrupt one after a warning.
func New(path string, max int) *Store {
	if path == "" {
		path = DefaultPath
	}
	if max <= 0 {
		max = DefaultMaxTurns
	}

	s := &Store{path: path, max: max, now: time.Now}
	s.turns = s.load()
	return s
}

func (s *Store) load() []domain.ChatTurn {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("error reading chat history", "path", s.path, "error", err)
		}
		return []domain.ChatTurn{}
	}

	var turns []domain.ChatTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		slog.Warn("chat history is corrupt, starting empty", "path", s.path, "error", err)
		return []domain.ChatTurn{}
	}
	if len(turns) > s.max {
		turns = turns[len(turns)-s.max:]
	}
	return turns
}

// Add appends a turn stamped with the current time, drops the oldest turns
// beyond the limit and persists. Write failures are logged only.
func (s *Store) Add(role domain.Role, content, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(domain.ChatTurn{Role: role, Content: content, Source: source})
}

// AddExchange appends a question and its answer as adjacent turns and
// persists once.
func (s *Store) AddExchange(question, answer, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.append(
		domain.ChatTurn{Role: domain.RoleUser, Content: question},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: answer, Source: source},
	)
}

func (s *Store) append(turns ...domain.ChatTurn) {
	stamp := s.now().Format(time.RFC3339Nano)
	for _, turn := range turns {
		turn.Timestamp = stamp
		s.turns = append(s.turns, turn)
	}
	if len(s.turns) > s.max {
		s.turns = append([]domain.ChatTurn(nil), s.turns[len(s.turns)-s.max:]...)
	}

	if err := s.save(); err != nil {
		slog.Error("error saving chat history", "path", s.path, "error", err)
	}
}

// Turns returns a copy of the stored turns, oldest first.
func (s *Store) Turns() []domain.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatTurn{}, s.turns...)
}

// Recent returns up to n of the newest turns, oldest first.
func (s *Store) Recent(n int) []domain.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.turns) {
		n = len(s.turns)
	}
	if n <= 0 {
		return []domain.ChatTurn{}
	}
	return append([]domain.ChatTurn{}, s.turns[len(s.turns)-n:]...)
}

// Clear empties the history and persists the empty list.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = []domain.ChatTurn{}
	if err := s.save(); err != nil {
		slog.Error("error saving chat history", "path", s.path, "error", err)
	}
}

// Save writes the current history to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.turns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write chat history: %w", err)
	}
	return nil
}
