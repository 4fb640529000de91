package port

import "context"

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// ChatRequest holds the messages and sampling settings for one completion.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

// ChatModel represents a hosted chat-completion model.
type ChatModel interface {
	// Complete returns the text of the first completion choice.
	Complete(ctx context.Context, req ChatRequest) (string, error)

	// Name returns the provider name.
	Name() string
}
