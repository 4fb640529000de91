package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"faqbot/internal/domain"
	"faqbot/internal/port"
)

// fakeRetriever serves canned results per collection.
type fakeRetriever struct {
	mu      sync.Mutex
	results map[string][]domain.QueryResult
	err     error
	calls   []string
}

func (r *fakeRetriever) Query(ctx context.Context, collection, text string, k int) ([]domain.QueryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, collection)
	if r.err != nil {
		return nil, r.err
	}
	res := r.results[collection]
	if k < len(res) {
		res = res[:k]
	}
	return res, nil
}

// fakeModel records requests and answers with a fixed text, or with the
// context section of the prompt when echo is set.
type fakeModel struct {
	mu       sync.Mutex
	answer   string
	echo     bool
	err      error
	requests []port.ChatRequest
}

func (m *fakeModel) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if m.echo {
		last := req.Messages[len(req.Messages)-1].Content
		return strings.TrimPrefix(strings.SplitN(last, "\n\nQuestion:", 2)[0], "Context:\n"), nil
	}
	return m.answer, nil
}

func (m *fakeModel) Name() string {
	return "fake"
}

func (m *fakeModel) last() port.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

var errModelDown = errors.New("model down")

func result(text, source string) domain.QueryResult {
	return domain.QueryResult{Chunk: domain.Chunk{
		Text:     text,
		Metadata: domain.ChunkMetadata{Source: source},
	}}
}
