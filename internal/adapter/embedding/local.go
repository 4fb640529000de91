package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"faqbot/internal/adapter/analyzer"
)

// LocalDimension is the output size of the local hashing model.
const LocalDimension = 384

const trigramWeight = 0.5

// LocalEmbedder is an in-process feature-hashing model. Terms and their
// character trigrams are hashed into signed buckets and the result is L2
// normalised, so texts sharing vocabulary land close together.
type LocalEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{
		dimension: LocalDimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *LocalEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	texts, err := validate(texts)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float64, e.dimension)

	for _, term := range e.tokenizer.Tokenize(text) {
		e.add(vec, "w:"+term, 1)
		for _, gram := range analyzer.Trigrams(term) {
			e.add(vec, "g:"+gram, trigramWeight)
		}
	}

	// Texts made only of stopwords or single characters still get a
	// deterministic, non-zero vector.
	if isZero(vec) {
		e.add(vec, "t:"+strings.ToLower(strings.TrimSpace(text)), 1)
	}

	return normalize(vec)
}

func (e *LocalEmbedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func normalize(vec []float64) []float32 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

func (e *LocalEmbedder) Provider() string {
	return "local"
}

func (e *LocalEmbedder) ModelName() string {
	return "feature-hashing-384"
}
