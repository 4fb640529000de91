package llm

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"faqbot/internal/port"
)

// OpenAI talks to any OpenAI-compatible chat completion endpoint, Groq
// included.
type OpenAI struct {
	provider string
	client   *openai.Client
}

func NewOpenAI(provider, apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		provider: provider,
		client:   openai.NewClientWithConfig(cfg),
	}
}

func (m *OpenAI) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	rsp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(rsp.Choices[0].Message.Content), nil
}

func (m *OpenAI) Name() string {
	return m.provider
}
