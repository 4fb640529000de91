package embedding

import "context"

// MockEmbedder returns deterministic vectors derived from the runes of each
// text. Useful for benchmarks and tests that should not depend on a model.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	texts, err := validate(texts)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, e.dimension)

		j := 0
		for _, r := range texts[i] {
			if j >= e.dimension {
				break
			}
			embeddings[i][j] = float32(r) / 1000.0
			j++
		}
	}
	return embeddings, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) Provider() string {
	return "mock"
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
