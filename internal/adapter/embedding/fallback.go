package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"faqbot/internal/port"
)

// FallbackEmbedder prefers a remote provider and falls back to a local model.
// The remote provider is probed once at construction; if the probe fails the
// local model is used for the rest of the process. A remote failure during
// Generate switches to the local model once and for good, unless the
// caller's context was cancelled or timed out.
type FallbackEmbedder struct {
	mu     sync.RWMutex
	remote port.Embedder
	local  port.Embedder
	active port.Embedder
}

// NewFallbackEmbedder picks the provider. remote may be nil, in which case
// the local model is used straight away.
func NewFallbackEmbedder(ctx context.Context, remote, local port.Embedder) *FallbackEmbedder {
	e := &FallbackEmbedder{
		remote: remote,
		local:  local,
		active: local,
	}

	if remote == nil {
		slog.Info("using local embeddings", "model", local.ModelName())
		return e
	}

	if _, err := remote.Generate(ctx, []string{"ping"}); err != nil {
		slog.Warn("remote embeddings unavailable, falling back to local", "model", remote.ModelName(), "error", err)
		return e
	}

	e.active = remote
	slog.Info("using remote embeddings", "model", remote.ModelName())
	return e
}

func (e *FallbackEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	if _, err := validate(texts); err != nil {
		return nil, err
	}

	e.mu.RLock()
	active := e.active
	e.mu.RUnlock()

	vectors, err := active.Generate(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if active == e.local || errors.Is(err, ErrInvalidInput) || ctx.Err() != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	slog.Warn("remote embedding failed, switching to local", "error", err)
	e.mu.Lock()
	e.active = e.local
	e.mu.Unlock()

	vectors, err = e.local.Generate(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("both remote and local embeddings failed: %w", err)
	}
	return vectors, nil
}

func (e *FallbackEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active.Dimension()
}

func (e *FallbackEmbedder) Provider() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active.Provider()
}

func (e *FallbackEmbedder) ModelName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active.ModelName()
}

// Info reports the active provider.
func (e *FallbackEmbedder) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Info{
		Provider:  e.active.Provider(),
		Dimension: e.active.Dimension(),
		Model:     e.active.ModelName(),
	}
}

// Select builds the embedder for a configured provider. Provider "local"
// skips the remote model, as does a missing API key.
func Select(ctx context.Context, provider, model, apiKeyEnv, baseURL string) *FallbackEmbedder {
	local := NewLocalEmbedder()
	if provider == "local" {
		return NewFallbackEmbedder(ctx, nil, local)
	}

	if baseURL == "" {
		baseURL, _ = ProviderBaseURL(provider)
	}
	remote, err := NewRemoteEmbedder(apiKeyEnv, model, baseURL)
	if err != nil {
		slog.Warn("remote embeddings not configured", "provider", provider, "error", err)
		return NewFallbackEmbedder(ctx, nil, local)
	}
	return NewFallbackEmbedder(ctx, remote, local)
}
