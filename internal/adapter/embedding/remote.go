package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

// RemoteEmbedder calls an OpenAI-compatible /embeddings endpoint.
type RemoteEmbedder struct {
	model     string
	baseURL   string
	dimension int
	client    *openai.Client
}

// Base URLs of OpenAI-compatible embedding providers.
var providerBaseURLs = map[string]string{
	"openai": "https://api.openai.com/v1",
	"groq":   "https://api.groq.com/openai/v1",
	"jina":   "https://api.jina.ai/v1",
	"ollama": "http://localhost:11434/v1",
}

// ProviderBaseURL returns the default base URL for a named provider.
func ProviderBaseURL(provider string) (string, bool) {
	u, ok := providerBaseURLs[provider]
	return u, ok
}

func NewRemoteEmbedder(apiKeyEnv, model, baseURL string) (*RemoteEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return newRemoteEmbedder(apiKey, model, baseURL), nil
}

func newRemoteEmbedder(apiKey, model, baseURL string) *RemoteEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &RemoteEmbedder{
		model:     model,
		baseURL:   cfg.BaseURL,
		dimension: modelDimension(model),
		client:    openai.NewClientWithConfig(cfg),
	}
}

func modelDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "jina-embeddings-v3", "mxbai-embed-large":
		return 1024
	case "nomic-embed-text":
		return 768
	case "all-minilm", "all-MiniLM-L6-v2":
		return 384
	}
	return 1536
}

func (e *RemoteEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	texts, err := validate(texts)
	if err != nil {
		return nil, err
	}

	const maxBatch = 100
	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += maxBatch {
		end := i + maxBatch
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

func (e *RemoteEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrProvider, err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}

	for i, emb := range embeddings {
		if len(emb) == 0 {
			return nil, fmt.Errorf("%w: missing embedding for input %d", ErrProvider, i)
		}
		if len(emb) != e.dimension {
			return nil, fmt.Errorf("%w: model %s returned dimension %d, expected %d", ErrProvider, e.model, len(emb), e.dimension)
		}
	}

	return embeddings, nil
}

func (e *RemoteEmbedder) Dimension() int {
	return e.dimension
}

func (e *RemoteEmbedder) Provider() string {
	return "remote"
}

func (e *RemoteEmbedder) ModelName() string {
	return e.model
}
