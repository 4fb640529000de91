package suggest

import (
	"math"
	"sort"
	"sync"

	"faqbot/internal/adapter/analyzer"
)

// TFIDFSuggester ranks a question bank against a query by cosine similarity
// of TF-IDF vectors. IDF is smoothed, ln((1+N)/(1+df))+1, and every vector
// is L2 normalised.
type TFIDFSuggester struct {
	mu        sync.RWMutex
	tokenizer *analyzer.Tokenizer
	questions []string
	idf       map[string]float64
	vectors   []map[string]float64
}

func NewTFIDFSuggester() *TFIDFSuggester {
	return &TFIDFSuggester{tokenizer: analyzer.NewTokenizer(true)}
}

// Load replaces the bank and refits the vocabulary.
func (s *TFIDFSuggester) Load(questions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = clone(questions)
	s.idf = make(map[string]float64)
	s.vectors = nil

	if len(questions) == 0 {
		return
	}

	counts := make([]map[string]int, len(questions))
	df := make(map[string]int)
	for i, q := range questions {
		counts[i] = s.tokenizer.TermCounts(q)
		for term := range counts[i] {
			df[term]++
		}
	}

	n := float64(len(questions))
	for term, d := range df {
		s.idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}

	s.vectors = make([]map[string]float64, len(questions))
	for i := range counts {
		s.vectors[i] = s.weigh(counts[i])
	}
}

// Suggest returns the k bank questions closest to query, best first. Equal
// scores put the later bank entry first.
func (s *TFIDFSuggester) Suggest(query string, k int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.questions) == 0 || k <= 0 {
		return []string{}
	}

	qv := s.weigh(s.tokenizer.TermCounts(query))

	idx := make([]int, len(s.questions))
	sims := make([]float64, len(s.questions))
	for i, v := range s.vectors {
		idx[i] = i
		sims[i] = dot(qv, v)
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return sims[idx[a]] < sims[idx[b]]
	})

	if k > len(idx) {
		k = len(idx)
	}

	out := make([]string, 0, k)
	for i := len(idx) - 1; i >= len(idx)-k; i-- {
		out = append(out, s.questions[idx[i]])
	}
	return out
}

// weigh turns raw term counts into an L2 normalised TF-IDF vector. Terms
// outside the vocabulary are dropped.
func (s *TFIDFSuggester) weigh(counts map[string]int) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	var norm float64
	for term, c := range counts {
		idf, ok := s.idf[term]
		if !ok {
			continue
		}
		w := float64(c) * idf
		vec[term] = w
		norm += w * w
	}

	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	return sum
}
