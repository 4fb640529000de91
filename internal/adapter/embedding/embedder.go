// Package embedding turns text into fixed-length vectors. A remote
// OpenAI-compatible provider is preferred; a local hashing model is used when
// the remote one is unavailable.
package embedding

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput reports an empty input list or one with only blank texts.
	ErrInvalidInput = errors.New("invalid embedding input")

	// ErrProvider reports a failure inside an embedding backend.
	ErrProvider = errors.New("embedding provider failed")
)

// validate drops blank texts and rejects inputs with nothing left to embed.
func validate(texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: input texts list cannot be empty", ErrInvalidInput)
	}

	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: all texts are empty after filtering", ErrInvalidInput)
	}

	return kept, nil
}

// Info describes the active embedding provider.
type Info struct {
	Provider  string `json:"provider"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
}
