package llm

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"faqbot/internal/port"
)

const defaultAnthropicMaxTokens = 1024

// Anthropic uses the Messages API. System messages are lifted into the
// request's system blocks.
type Anthropic struct {
	client *anthropic.Client
}

func NewAnthropic(apiKey, baseURL string) *Anthropic {
	opts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(apiKey),
		anthropicopt.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(baseURL))
	}

	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client}
}

func (m *Anthropic) Complete(ctx context.Context, req port.ChatRequest) (string, error) {
	system, rest := splitSystem(req.Messages)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	for _, s := range system {
		params.System = append(params.System, anthropic.TextBlockParam{Text: s})
	}
	for _, msg := range rest {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	rsp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var (
		b     strings.Builder
		found bool
	)
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
			found = true
		}
	}
	if !found {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(b.String()), nil
}

func (m *Anthropic) Name() string {
	return "anthropic"
}
