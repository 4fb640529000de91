package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"faqbot/internal/domain"
	"faqbot/internal/port"
)

const (
	SystemPrompt = "You are a helpful assistant that provides information about patents and BIS standards. Use the provided context to answer questions accurately."

	// Apology is returned in place of an answer whenever generation fails.
	Apology = "I apologize, but I encountered an error while processing your request. Please try again."

	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultTopK        = 2

	// historyTurns is how many previous turns are replayed to the model.
	historyTurns = 4
)

// GenerationConfig holds the sampling settings used for every answer.
type GenerationConfig struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopK        int     `json:"top_k"`
}

// DefaultGenerationConfig returns the stock settings.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopK:        DefaultTopK,
	}
}

// ConfigUpdate changes only the fields that are set.
type ConfigUpdate struct {
	Model       *string  `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// Validate rejects out of range values.
func (u ConfigUpdate) Validate() error {
	if u.Temperature != nil && (*u.Temperature < 0 || *u.Temperature > 2) {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if u.MaxTokens != nil && *u.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	}
	if u.Model != nil && strings.TrimSpace(*u.Model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidConfig)
	}
	return nil
}

func (c GenerationConfig) apply(u ConfigUpdate) GenerationConfig {
	if u.Model != nil {
		c.Model = *u.Model
	}
	if u.Temperature != nil {
		c.Temperature = *u.Temperature
	}
	if u.MaxTokens != nil {
		c.MaxTokens = *u.MaxTokens
	}
	return c
}

// Generator answers a routed question from retrieved FAQ chunks.
type Generator struct {
	retriever port.Retriever
	model     port.ChatModel

	mu  sync.RWMutex
	cfg GenerationConfig
}

func NewGenerator(retriever port.Retriever, model port.ChatModel, cfg GenerationConfig) *Generator {
	def := DefaultGenerationConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	return &Generator{
		retriever: retriever,
		model:     model,
		cfg:       cfg,
	}
}

// Config returns the current generation settings.
func (g *Generator) Config() GenerationConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// UpdateConfig applies u to the settings used by later calls.
func (g *Generator) UpdateConfig(u ConfigUpdate) (GenerationConfig, error) {
	if err := u.Validate(); err != nil {
		return GenerationConfig{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = g.cfg.apply(u)
	return g.cfg, nil
}

// ModelName reports the chat provider in use.
func (g *Generator) ModelName() string {
	return g.model.Name()
}

// Retrieved holds the chunks found for each domain.
type Retrieved struct {
	Patent []domain.QueryResult `json:"patent"`
	BIS    []domain.QueryResult `json:"bis"`
}

// Source is the source of the first patent chunk, else the first BIS chunk.
func (r Retrieved) Source() *string {
	if len(r.Patent) > 0 {
		s := r.Patent[0].Chunk.Metadata.Source
		return &s
	}
	if len(r.BIS) > 0 {
		s := r.BIS[0].Chunk.Metadata.Source
		return &s
	}
	return nil
}

// Context renders the retrieved chunks under one header per domain.
func (r Retrieved) Context() string {
	var b strings.Builder
	if len(r.Patent) > 0 {
		b.WriteString("Patent Information:\n")
		b.WriteString(joinTexts(r.Patent))
		b.WriteString("\n\n")
	}
	if len(r.BIS) > 0 {
		b.WriteString("BIS Information:\n")
		b.WriteString(joinTexts(r.BIS))
	}
	return b.String()
}

func joinTexts(results []domain.QueryResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, "\n")
}

// Retrieve queries every collection of route for k chunks.
func (g *Generator) Retrieve(ctx context.Context, query string, route domain.Route, k int) (Retrieved, error) {
	var out Retrieved
	for _, collection := range route.Collections() {
		results, err := g.retriever.Query(ctx, collection, query, k)
		if err != nil {
			return Retrieved{}, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		switch collection {
		case domain.PatentCollection:
			out.Patent = results
		case domain.BISCollection:
			out.BIS = results
		}
	}
	return out, nil
}

// Generate answers query with the current settings.
func (g *Generator) Generate(ctx context.Context, query string, route domain.Route, history []domain.ChatTurn) domain.Answer {
	return g.GenerateWith(ctx, query, route, history, ConfigUpdate{})
}

// GenerateWith answers query with overrides applied on top of the current
// settings for this call only. Failures yield the apology and no source.
func (g *Generator) GenerateWith(ctx context.Context, query string, route domain.Route, history []domain.ChatTurn, overrides ConfigUpdate) domain.Answer {
	cfg := g.Config().apply(overrides)

	retrieved, err := g.Retrieve(ctx, query, route, cfg.TopK)
	if err != nil {
		slog.Error("error retrieving context", "route", route, "error", err)
		return domain.Answer{Text: Apology}
	}

	text, err := g.model.Complete(ctx, port.ChatRequest{
		Model:       cfg.Model,
		Messages:    buildMessages(retrieved.Context(), query, history),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		slog.Error("error generating response", "model", cfg.Model, "provider", g.model.Name(), "error", err)
		return domain.Answer{Text: Apology}
	}

	return domain.Answer{
		Text:   strings.TrimSpace(text),
		Source: retrieved.Source(),
	}
}

// BuildPrompt assembles the messages that would be sent for query without
// calling the model.
func (g *Generator) BuildPrompt(ctx context.Context, query string, route domain.Route) ([]port.ChatMessage, error) {
	retrieved, err := g.Retrieve(ctx, query, route, g.Config().TopK)
	if err != nil {
		return nil, err
	}
	return buildMessages(retrieved.Context(), query, nil), nil
}

func buildMessages(contextText, query string, history []domain.ChatTurn) []port.ChatMessage {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	messages := make([]port.ChatMessage, 0, len(history)+2)
	messages = append(messages, port.ChatMessage{Role: "system", Content: SystemPrompt})
	for _, turn := range history {
		messages = append(messages, port.ChatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, port.ChatMessage{
		Role:    "user",
		Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query),
	})
	return messages
}
